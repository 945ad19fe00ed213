package errors

import (
	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	i18nPkg "github.com/gaoyong06/go-pkg/middleware/i18n"
)

func init() {
	// 初始化全局错误管理器（使用项目特定的配置）
	pkgErrors.InitGlobalErrorManager("i18n", i18nPkg.Language)
}

// Course Order Service 错误码定义
// 错误码格式：SSMMEE (6位数字)
//   SS: 服务标识，Course Order 固定为 23
//   MM: 模块标识，按业务划分
//   EE: 模块内错误序号
//
// 模块划分：
//   00: 通用模块（复用 go-pkg 通用错误码）
//   01: 课程/参数模块
//   02: 支付网关模块
//   03: 订单模块
//   04: 报名模块
//   05-99: 预留扩展

// 课程/参数模块错误码 (230100-230199)
const (
	// ErrCodeInvalidRequest 请求参数缺失或格式错误
	ErrCodeInvalidRequest = 230101
	// ErrCodeCourseNotFound 课程不存在
	ErrCodeCourseNotFound = 230102
	// ErrCodeCourseInactive 课程已下架
	ErrCodeCourseInactive = 230103
)

// 支付网关模块错误码 (230200-230299)
const (
	// ErrCodePayGateConfigNil 支付网关配置为空
	ErrCodePayGateConfigNil = 230201
	// ErrCodePayGateRequestFailed 支付网关请求失败
	ErrCodePayGateRequestFailed = 230202
	// ErrCodePayGateRejected 支付网关返回业务错误
	ErrCodePayGateRejected = 230203
	// ErrCodePayGateBadResponse 支付网关响应无法解析
	ErrCodePayGateBadResponse = 230204
	// ErrCodeTransactionNotFound 支付流水无法关联到订单
	ErrCodeTransactionNotFound = 230205
)

// 订单模块错误码 (230300-230399)
const (
	// ErrCodeOrderNotFound 订单不存在
	ErrCodeOrderNotFound = 230301
	// ErrCodeOrderCreateFailed 订单创建失败
	ErrCodeOrderCreateFailed = 230302
	// ErrCodeOrderUpdateFailed 订单状态更新失败
	ErrCodeOrderUpdateFailed = 230303
	// ErrCodePaymentWriteFailed 支付状态写入失败
	ErrCodePaymentWriteFailed = 230304
	// ErrCodeOrderQueryFailed 订单查询失败
	ErrCodeOrderQueryFailed = 230305
)

// 报名模块错误码 (230400-230499)
const (
	// ErrCodeEnrollmentQueryFailed 报名查询失败
	ErrCodeEnrollmentQueryFailed = 230401
	// ErrCodeEnrollmentCreateFailed 报名创建失败
	ErrCodeEnrollmentCreateFailed = 230402
)
