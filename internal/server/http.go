package server

import (
	"encoding/json"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/gaoyong06/go-pkg/health"
	"github.com/gaoyong06/go-pkg/middleware/i18n"

	"course-order-service/internal/conf"
	"course-order-service/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Bootstrap, order *service.OrderService, logger log.Logger) *http.Server {
	helper := log.NewHelper(logger)

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			// 添加 i18n 中间件
			i18n.Middleware(),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server != nil {
		if c.Server.Http.Addr != "" {
			opts = append(opts, http.Address(c.Server.Http.Addr))
		}
		if d := durationOrZero(c.Server.Http.Timeout); d > 0 {
			opts = append(opts, http.Timeout(d))
		}
	}
	srv := http.NewServer(opts...)

	// 注册业务路由
	r := srv.Route("/v1")

	r.POST("/orders", func(ctx http.Context) error {
		var req service.CreateOrderRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := order.CreateOrder(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.GET("/orders/{order_id}", func(ctx http.Context) error {
		req := service.GetOrderRequest{OrderID: ctx.Vars().Get("order_id")}
		reply, err := order.GetOrder(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/payments", func(ctx http.Context) error {
		var req service.CreatePaymentRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := order.CreatePayment(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/payments/status", func(ctx http.Context) error {
		var req service.PaymentStatusRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := order.CheckPaymentStatus(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	r.POST("/payments/cancel", func(ctx http.Context) error {
		var req service.PaymentStatusRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := order.CancelPayment(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	// 网关回调。始终回 200，验签失败只体现在响应字段里，避免网关重投风暴。
	r.POST("/payments/webhook", func(ctx http.Context) error {
		payload, err := io.ReadAll(ctx.Request().Body)
		if err != nil {
			helper.Errorf("read webhook body failed: %v", err)
			payload = nil
		}
		reply := order.HandleWebhook(ctx, payload)
		return ctx.Result(200, reply)
	})

	r.GET("/paygate/store", func(ctx http.Context) error {
		raw, err := order.GetStoreInfo(ctx)
		if err != nil {
			return err
		}
		return ctx.Result(200, raw)
	})

	// 注册健康检查端点
	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(200, health.NewResponse("course-order-service"))
	})

	// Prometheus 指标
	srv.Handle("/metrics", promhttp.Handler())

	return srv
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"code":    status,
		"message": "internal server error",
	}

	if se != nil {
		status = mapErrorStatus(int(se.Code))
		response["code"] = se.Code
		response["reason"] = se.Reason
		response["message"] = se.Message
		if len(se.Metadata) > 0 {
			response["metadata"] = se.Metadata
		}
	} else if err != nil {
		response["message"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func durationOrZero(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func mapErrorStatus(code int) int {
	if code >= 100 && code < 600 {
		return code
	}
	// 2301xx 参数/课程类错误映射 400，其余 500
	if code >= 230100 && code < 230200 {
		return stdhttp.StatusBadRequest
	}
	return stdhttp.StatusInternalServerError
}
