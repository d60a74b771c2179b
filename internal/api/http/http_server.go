package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/olyamironova/orderbook-engine/internal/api/dto"
	"github.com/olyamironova/orderbook-engine/internal/core"
	"github.com/olyamironova/orderbook-engine/internal/domain"
	"github.com/olyamironova/orderbook-engine/internal/middleware"
)

// HTTPServer exposes the engine over JSON. Prices and quantities cross
// this boundary as decimals and are converted to integer ticks and lots
// at the configured scales; everything past the DTOs is integer.
type HTTPServer struct {
	eng        *core.Engine
	log        *zap.Logger
	priceScale int32
	qtyScale   int32
	rateLimit  time.Duration
}

func NewHTTPServer(eng *core.Engine, log *zap.Logger, priceScale, qtyScale int32, rateLimit time.Duration) *HTTPServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPServer{eng: eng, log: log, priceScale: priceScale, qtyScale: qtyScale, rateLimit: rateLimit}
}

func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	rl := middleware.NewRateLimiter(s.rateLimit)
	r.Use(rl.Middleware())

	r.POST("/orders", s.submitOrder)
	r.POST("/orders/cancel", s.cancelOrder)
	r.POST("/orders/modify", s.modifyOrder)
	r.GET("/orderbook", s.depth)
	r.GET("/orderbook/size", s.size)
	r.POST("/orderbook/snapshot", s.snapshot)

	return r
}

func (s *HTTPServer) Run(addr string) error {
	s.log.Info("http server listening", zap.String("addr", addr))
	return s.Router().Run(addr)
}

func (s *HTTPServer) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := s.buildOrder(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trades, err := s.eng.SubmitOrder(c.Request.Context(), order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.SubmitOrderResponse{
		OrderID:   order.ID(),
		Trades:    s.convertTrades(trades),
		Remaining: dto.FromLots(order.RemainingQuantity(), s.qtyScale),
	}
	if len(trades) == 0 && order.FilledQuantity() == 0 && !s.eng.Contains(order.ID()) {
		resp.Message = "order rejected"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.eng.CancelOrder(c.Request.Context(), req.OrderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.CancelOrderResponse{OrderID: req.OrderID, Cancelled: true})
}

func (s *HTTPServer) modifyOrder(c *gin.Context) {
	var req dto.ModifyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	side, err := req.Side.Domain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, err := dto.ToTicks(req.Price, s.priceScale)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quantity, err := dto.ToLots(req.Quantity, s.qtyScale)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trades, err := s.eng.ModifyOrder(c.Request.Context(), domain.OrderModify{
		ID:       req.OrderID,
		Side:     side,
		Price:    price,
		Quantity: quantity,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ModifyOrderResponse{OrderID: req.OrderID, Trades: s.convertTrades(trades)})
}

func (s *HTTPServer) depth(c *gin.Context) {
	d := s.eng.Depth(c.Request.Context())
	c.JSON(http.StatusOK, dto.DepthResponse{
		Symbol:    d.Symbol,
		Bids:      s.convertLevels(d.Bids),
		Asks:      s.convertLevels(d.Asks),
		Timestamp: d.Timestamp,
	})
}

func (s *HTTPServer) size(c *gin.Context) {
	c.JSON(http.StatusOK, dto.SizeResponse{Size: s.eng.Size()})
}

func (s *HTTPServer) snapshot(c *gin.Context) {
	id, err := s.eng.SnapshotDepth(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.SnapshotResponse{SnapshotID: id})
}

func (s *HTTPServer) buildOrder(req *dto.SubmitOrderRequest) (*domain.Order, error) {
	side, err := req.Side.Domain()
	if err != nil {
		return nil, err
	}
	kind, err := req.Kind.Domain()
	if err != nil {
		return nil, err
	}
	quantity, err := dto.ToLots(req.Quantity, s.qtyScale)
	if err != nil {
		return nil, err
	}

	if kind == domain.Market {
		return domain.NewMarketOrder(req.OrderID, side, quantity), nil
	}
	price, err := dto.ToTicks(req.Price, s.priceScale)
	if err != nil {
		return nil, err
	}
	return domain.NewOrder(kind, req.OrderID, side, price, quantity), nil
}

func (s *HTTPServer) convertLevels(levels []domain.LevelInfo) []dto.Level {
	res := make([]dto.Level, len(levels))
	for i, lvl := range levels {
		res[i] = dto.Level{
			Price:    dto.FromTicks(lvl.Price, s.priceScale),
			Quantity: dto.FromLots(lvl.Quantity, s.qtyScale),
		}
	}
	return res
}

func (s *HTTPServer) convertTrades(trades []domain.Trade) []dto.Trade {
	res := make([]dto.Trade, len(trades))
	for i, t := range trades {
		res[i] = dto.Trade{
			Bid: dto.TradeLeg{
				OrderID:  t.Bid.OrderID,
				Price:    dto.FromTicks(t.Bid.Price, s.priceScale),
				Quantity: dto.FromLots(t.Bid.Quantity, s.qtyScale),
			},
			Ask: dto.TradeLeg{
				OrderID:  t.Ask.OrderID,
				Price:    dto.FromTicks(t.Ask.Price, s.priceScale),
				Quantity: dto.FromLots(t.Ask.Quantity, s.qtyScale),
			},
		}
	}
	return res
}
