package api

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/MixinNetwork/entangler/entangler"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const maxListLimit = 500

var errNotFound = errors.New("not_found")

type RespErr struct {
	Err string `json:"error"`
}

type Server struct {
	query  *entangler.Query
	engine *gin.Engine
}

func NewServer(query *entangler.Query) *Server {
	s := &Server{
		query:  query,
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(listen string) error {
	logger.Printf("API listening on %s\n", listen)
	return s.engine.Run(listen)
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/state", s.getState)
	r.GET("/collections", s.listCollections)
	r.GET("/collections/:id", s.getCollection)
	r.GET("/collections/:id/pairs/:mint", s.getPair)
	r.GET("/entries/:key", s.getEntry)
	r.GET("/journal", s.listJournals)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type stateView struct {
	Address string `json:"address"`
	Admin   string `json:"admin"`
	Earner  string `json:"earner"`
	FeeMint string `json:"fee_mint"`
	Price   uint64 `json:"price"`
	Amount  string `json:"amount"`
}

type collectionView struct {
	Address                 string `json:"address"`
	Id                      string `json:"id"`
	OriginalCollectionMint  string `json:"original_collection_mint"`
	EntangledCollectionMint string `json:"entangled_collection_mint"`
	Royalties               uint16 `json:"royalties"`
	OneWay                  bool   `json:"one_way"`
}

type pairView struct {
	Address       string `json:"address"`
	OriginalMint  string `json:"original_mint"`
	EntangledMint string `json:"entangled_mint"`
	State         string `json:"state"`
}

type entryView struct {
	Address string `json:"address"`
	Id      string `json:"id"`
	Key     string `json:"key"`
}

type journalView struct {
	TraceId     string    `json:"trace_id"`
	Signer      string    `json:"signer"`
	Instruction string    `json:"instruction"`
	Digest      string    `json:"digest"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) getState(c *gin.Context) {
	st, err := s.query.ReadEntanglerState()
	if err != nil {
		internalErrorResponse(c, err)
		return
	}
	if st == nil {
		notFoundResponse(c)
		return
	}
	view := stateView{
		Address: entangler.StateAddress().String(),
		Admin:   st.Admin.String(),
		Earner:  st.Earner.String(),
		FeeMint: st.FeeMint.String(),
		Price:   st.Price,
		Amount:  strconv.FormatUint(st.Price, 10),
	}
	m, err := s.query.Ledger().ReadMint(st.FeeMint)
	if err == nil {
		view.Amount = decimal.NewFromBigInt(new(big.Int).SetUint64(st.Price), -int32(m.Decimals)).String()
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) listCollections(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		errorResponse(c, err)
		return
	}
	collections, err := s.query.ListCollections(limit)
	if err != nil {
		internalErrorResponse(c, err)
		return
	}
	views := make([]collectionView, 0, len(collections))
	for _, col := range collections {
		views = append(views, viewCollection(col))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) getCollection(c *gin.Context) {
	id, err := solana.PublicKeyFromBase58(c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	col, err := s.query.ReadCollection(id)
	if err != nil {
		internalErrorResponse(c, err)
		return
	}
	if col == nil {
		notFoundResponse(c)
		return
	}
	c.JSON(http.StatusOK, viewCollection(col))
}

func (s *Server) getPair(c *gin.Context) {
	id, err := solana.PublicKeyFromBase58(c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	mint, err := solana.PublicKeyFromBase58(c.Param("mint"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	p, err := s.query.ReadPair(id, mint)
	if err != nil {
		internalErrorResponse(c, err)
		return
	}
	if p == nil {
		notFoundResponse(c)
		return
	}
	c.JSON(http.StatusOK, pairView{
		Address:       entangler.PairAddress(p.EntangledMint).String(),
		OriginalMint:  p.OriginalMint.String(),
		EntangledMint: p.EntangledMint.String(),
		State:         p.State.String(),
	})
}

func (s *Server) getEntry(c *gin.Context) {
	key := c.Param("key")
	e, err := s.query.ReadEntry(key)
	if errors.Is(err, entangler.ErrInvalidArgument) {
		errorResponse(c, err)
		return
	} else if err != nil {
		internalErrorResponse(c, err)
		return
	}
	if e == nil {
		notFoundResponse(c)
		return
	}
	address, _ := entangler.EntryAddress(key)
	c.JSON(http.StatusOK, entryView{
		Address: address.String(),
		Id:      e.Id.String(),
		Key:     e.Key,
	})
}

func (s *Server) listJournals(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		errorResponse(c, err)
		return
	}
	var offset time.Time
	if o := c.Query("offset"); o != "" {
		ns, err := strconv.ParseInt(o, 10, 64)
		if err != nil {
			errorResponse(c, err)
			return
		}
		offset = time.Unix(0, ns)
	}
	journals, err := s.query.ListJournals(offset, limit)
	if err != nil {
		internalErrorResponse(c, err)
		return
	}
	views := make([]journalView, 0, len(journals))
	for _, j := range journals {
		views = append(views, journalView{
			TraceId:     j.TraceId,
			Signer:      j.Signer.String(),
			Instruction: j.Instruction,
			Digest:      j.Digest.String(),
			CreatedAt:   j.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, views)
}

func viewCollection(col *entangler.EntangledCollection) collectionView {
	return collectionView{
		Address:                 entangler.CollectionAddress(col.Id).String(),
		Id:                      col.Id.String(),
		OriginalCollectionMint:  col.OriginalCollectionMint.String(),
		EntangledCollectionMint: col.EntangledCollectionMint.String(),
		Royalties:               col.Royalties,
		OneWay:                  col.OneWay,
	}
}

func parseLimit(c *gin.Context) (int, error) {
	limit := 100
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			return 0, errors.New("invalid_limit")
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}

func errorResponse(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, RespErr{Err: err.Error()})
}

func notFoundResponse(c *gin.Context) {
	c.JSON(http.StatusNotFound, RespErr{Err: errNotFound.Error()})
}

func internalErrorResponse(c *gin.Context, err error) {
	logger.Printf("API error %s => %v\n", c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, RespErr{Err: err.Error()})
}
