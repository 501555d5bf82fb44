package entangler

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type propertyStore struct {
	Store
	properties map[string][]byte
}

func (s *propertyStore) ReadProperty(key []byte) ([]byte, error) {
	return s.properties[string(key)], nil
}

func (s *propertyStore) WriteProperty(key, val []byte) error {
	s.properties[string(key)] = val
	return nil
}

func TestObserveRequestLabels(t *testing.T) {
	require := require.New(t)
	p, err := NewProgram(&propertyStore{properties: make(map[string][]byte)}, solana.PublicKey{})
	require.Nil(err)
	priv, err := solana.NewRandomPrivateKey()
	require.Nil(err)
	ctx := context.Background()

	unauthorized := requestTotal.WithLabelValues("entangle", CodeUnauthorized.String())
	before := testutil.ToFloat64(unauthorized)
	req, err := NewRequest(uuid.Must(uuid.NewV4()).String(), &Entangle{}, priv)
	require.Nil(err)
	req.Signature = solana.Signature{}
	_, err = p.Execute(ctx, req)
	require.ErrorIs(err, ErrUnauthorized)
	require.Equal(before+1, testutil.ToFloat64(unauthorized))

	unknown := requestTotal.WithLabelValues("unknown", CodeInvalidArgument.String())
	before = testutil.ToFloat64(unknown)
	req.Instruction = []byte{1, 2, 3}
	_, err = p.Execute(ctx, req)
	require.ErrorIs(err, ErrInvalidArgument)
	require.Equal(before+1, testutil.ToFloat64(unknown))
}
