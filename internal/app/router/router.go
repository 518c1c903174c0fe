package router

import (
	"net/http"

	candleshandler "candle_sync/internal/feature/candles/transport/handler"
	orderbookhandler "candle_sync/internal/feature/orderbook/transport/handler"
	symbollisthandler "candle_sync/internal/feature/symbollist/transport/handler"
	platformhandler "candle_sync/internal/platform/http/handler"
	jwtmw "candle_sync/internal/platform/jwt"
	"candle_sync/internal/platform/metrics"

	"github.com/gin-gonic/gin"
)

// Handlers は読み取りAPIのハンドラー一式です。
type Handlers struct {
	Candles   *candleshandler.CandlesHandler
	Symbols   *symbollisthandler.SymbolHandler
	OrderBook *orderbookhandler.OrderBookHandler
}

// NewRouter は読み取りAPIのルーターを生成します。
// jwtSecret が空でなければデータ系のルートに JWT 認証を要求します。
func NewRouter(h Handlers, jwtSecret string, checks ...platformhandler.Check) *gin.Engine {
	r := gin.Default()

	// 認証不要
	registerOps(r, checks...)

	api := r.Group("/")
	if jwtSecret != "" {
		// → リクエストヘッダーに JWT が必要になる
		api.Use(jwtmw.AuthRequired(jwtSecret))
	}
	{
		api.GET("/candles", h.Candles.GetCandlesHandler)
		api.GET("/symbols", h.Symbols.List)
		api.GET("/orderbook/:symbol", h.OrderBook.Book)
		api.GET("/orderbook/:symbol/best", h.OrderBook.Best)
	}

	return r
}

// NewOpsRouter は同期プロセス用の /healthz, /readyz, /metrics だけを公開するルーターを生成します。
func NewOpsRouter(checks ...platformhandler.Check) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	registerOps(r, checks...)
	return r
}

func registerOps(r *gin.Engine, checks ...platformhandler.Check) {
	// 導通確認用
	r.Match([]string{http.MethodGet, http.MethodHead, http.MethodOptions}, "/healthz", platformhandler.Health)
	r.GET("/readyz", platformhandler.Ready(checks...))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}
