//go:build wireinject
// +build wireinject

package main

import (
	"course-order-service/internal/biz"
	"course-order-service/internal/conf"
	"course-order-service/internal/data"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// SweeperApp 清扫应用结构
type SweeperApp struct {
	sweeperUsecase *biz.SweeperUseCase
}

// wireApp 初始化应用
func wireApp(*conf.Bootstrap, log.Logger) (*SweeperApp, func(), error) {
	panic(wire.Build(
		data.ProviderSet,
		biz.ProviderSet,
		wire.Struct(new(SweeperApp), "*"),
	))
}
