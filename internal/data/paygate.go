package data

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"course-order-service/internal/biz"
	"course-order-service/internal/conf"
	"course-order-service/internal/constants"
	orderErrors "course-order-service/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/tidwall/gjson"
)

// payGateClient 支付网关 HTTP 客户端（实现 biz.PaymentGateway）。
// 网关响应形状不稳定：有时数组包裹、同一概念有多个字段名，解析集中在
// paygate_parse.go，这里只管协议与验签。
type payGateClient struct {
	conf *conf.PayGate
	hc   *http.Client
	log  *log.Helper
}

// NewPayGateClient 创建支付网关客户端
func NewPayGateClient(c *conf.Bootstrap, logger log.Logger) (biz.PaymentGateway, error) {
	if c.PayGate == nil {
		return nil, pkgErrors.NewBizErrorWithLang(context.Background(), orderErrors.ErrCodePayGateConfigNil)
	}
	return &payGateClient{
		conf: c.PayGate,
		hc:   &http.Client{Timeout: c.PayGateTimeout()},
		log:  log.NewHelper(logger),
	}, nil
}

// normalizeMethod 把客户端支付方式词汇归一为网关侧词汇：
// 信用卡/借记卡统一为 card，二维码各变体统一为 qr-none。
func normalizeMethod(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "credit", "debit", "credit_card", "debit_card", "creditcard", "debitcard":
		return constants.PayMethodCard
	case "qr", "qrcode", "qr_none", "promptpay", "thai_qr":
		return constants.PayMethodQR
	case "":
		return constants.PayMethodCard
	default:
		return strings.ToLower(strings.TrimSpace(method))
	}
}

// CreateTransaction 创建网关交易。金额从最小货币单位换成带两位小数的
// 主单位；联系方式缺失时兜底，网关对空字段会直接拒单。
func (g *payGateClient) CreateTransaction(ctx context.Context, req *biz.CreateTransactionRequest) (*biz.CreateTransactionResult, error) {
	name := req.Customer.Name
	if name == "" {
		name = "LIFF Customer"
	}
	email := req.Customer.Email
	if email == "" {
		email = "noreply@studio.local"
	}
	phone := req.Customer.Phone
	if phone == "" {
		phone = "0000000000"
	}

	body := map[string]interface{}{
		"merchant_id":    g.conf.MerchantID,
		"api_key":        g.conf.APIKey,
		"order_no":       req.OrderID,
		"amount":         fmt.Sprintf("%.2f", float64(req.Amount)/100),
		"description":    req.Description,
		"channel":        normalizeMethod(req.Method),
		"customer_name":  name,
		"customer_email": email,
		"customer_phone": phone,
		"return_url":     req.ReturnURL,
		"notify_url":     req.NotifyURL,
	}

	raw, err := g.post(ctx, "/api/v2/payment/create", body)
	if err != nil {
		return nil, err
	}

	doc := unwrapRoot(raw)
	if msg, bad := embeddedError(doc); bad {
		g.log.Errorf("Gateway rejected transaction: order_id=%s, message=%s", req.OrderID, msg)
		return nil, pkgErrors.WrapErrorWithLang(ctx, fmt.Errorf("gateway: %s", msg), orderErrors.ErrCodePayGateRejected)
	}

	chargeID := firstString(doc, chargeIDAliases...)
	if chargeID == "" {
		return nil, pkgErrors.WrapErrorWithLang(ctx, fmt.Errorf("no transaction id in gateway response"), orderErrors.ErrCodePayGateBadResponse)
	}

	redirect := firstString(doc, redirectURLAliases...)
	if redirect == "" {
		redirect = scanString(doc, scanMaxDepth, looksLikeURL)
	}
	qrImage := firstString(doc, qrImageAliases...)
	if qrImage == "" {
		qrImage = scanString(doc, scanMaxDepth, looksLikeImage)
	}

	return &biz.CreateTransactionResult{
		ChargeID:    chargeID,
		RedirectURL: redirect,
		PaymentType: firstString(doc, paymentTypeAliases...),
		QRImage:     qrImage,
		EmbedHTML:   firstString(doc, embedHTMLAliases...),
		Raw:         json.RawMessage(raw),
	}, nil
}

// CheckTransactionStatus 轮询网关交易状态并归一
func (g *payGateClient) CheckTransactionStatus(ctx context.Context, chargeID string) (*biz.GatewayResult, error) {
	raw, err := g.post(ctx, "/api/v2/payment/status", map[string]interface{}{
		"merchant_id":    g.conf.MerchantID,
		"api_key":        g.conf.APIKey,
		"transaction_id": chargeID,
	})
	if err != nil {
		return nil, err
	}
	return g.toGatewayResult(ctx, raw, chargeID, "")
}

// CancelTransaction 请求网关取消交易，成功时状态归一为 cancelled
func (g *payGateClient) CancelTransaction(ctx context.Context, chargeID string) (*biz.GatewayResult, error) {
	raw, err := g.post(ctx, "/api/v2/payment/cancel", map[string]interface{}{
		"merchant_id":    g.conf.MerchantID,
		"api_key":        g.conf.APIKey,
		"transaction_id": chargeID,
	})
	if err != nil {
		return nil, err
	}
	return g.toGatewayResult(ctx, raw, chargeID, "cancel")
}

func (g *payGateClient) toGatewayResult(ctx context.Context, raw []byte, chargeID, fallbackStatus string) (*biz.GatewayResult, error) {
	doc := unwrapRoot(raw)
	if msg, bad := embeddedError(doc); bad {
		return nil, pkgErrors.WrapErrorWithLang(ctx, fmt.Errorf("gateway: %s", msg), orderErrors.ErrCodePayGateRejected)
	}

	rawStatus := firstString(doc, statusAliases...)
	if rawStatus == "" {
		rawStatus = fallbackStatus
	}
	if id := firstString(doc, chargeIDAliases...); id != "" {
		chargeID = id
	}

	return &biz.GatewayResult{
		Status:    biz.NormalizeProviderStatus(rawStatus),
		RawStatus: rawStatus,
		ChargeID:  chargeID,
		OrderRef:  firstString(doc, orderRefAliases...),
		Raw:       json.RawMessage(raw),
	}, nil
}

// DecodeWebhook 验签并解析回调。签名是对
// transactionId + amount + status + orderId 的字面拼接做 HMAC-SHA256，
// 小写十六进制，与网关给的签名做大小写不敏感比较。任何必填字段缺失或
// 签名不符都返回 ok=false，永不返回错误。
func (g *payGateClient) DecodeWebhook(payload []byte) (*biz.WebhookNotice, bool) {
	doc := unwrapRoot(payload)

	chargeID := firstString(doc, chargeIDAliases...)
	amount := firstString(doc, amountAliases...)
	rawStatus := firstString(doc, statusAliases...)
	orderID := firstString(doc, orderRefAliases...)
	hash := firstString(doc, hashAliases...)

	if chargeID == "" || amount == "" || rawStatus == "" || orderID == "" || hash == "" {
		g.log.Warnf("Webhook missing required fields: charge_id_present=%t, hash_present=%t", chargeID != "", hash != "")
		return nil, false
	}

	expected := g.sign(chargeID, amount, rawStatus, orderID)
	if !strings.EqualFold(expected, hash) {
		g.log.Warnf("Webhook signature mismatch: charge_id=%s", chargeID)
		return nil, false
	}

	return &biz.WebhookNotice{
		ChargeID:  chargeID,
		Amount:    amount,
		RawStatus: rawStatus,
		OrderID:   orderID,
	}, true
}

// FetchStoreInfo 商户信息，诊断用
func (g *payGateClient) FetchStoreInfo(ctx context.Context) (json.RawMessage, error) {
	raw, err := g.post(ctx, "/api/v2/merchant/info", map[string]interface{}{
		"merchant_id": g.conf.MerchantID,
		"api_key":     g.conf.APIKey,
	})
	if err != nil {
		return nil, err
	}
	doc := unwrapRoot(raw)
	if msg, bad := embeddedError(doc); bad {
		return nil, pkgErrors.WrapErrorWithLang(ctx, fmt.Errorf("gateway: %s", msg), orderErrors.ErrCodePayGateRejected)
	}
	return json.RawMessage(raw), nil
}

func (g *payGateClient) sign(parts ...string) string {
	mac := hmac.New(sha256.New, []byte(g.conf.APISecret))
	mac.Write([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(mac.Sum(nil))
}

// post 发送网关请求。凭证只进请求体，日志里永远不出现。
func (g *payGateClient) post(ctx context.Context, path string, body map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.conf.BaseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.hc.Do(req)
	if err != nil {
		g.log.Errorf("Gateway request failed: path=%s, error=%v", path, err)
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodePayGateRequestFailed)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, orderErrors.ErrCodePayGateRequestFailed)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractErrorMessage(unwrapRoot(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		g.log.Errorf("Gateway returned %d: path=%s, message=%s", resp.StatusCode, path, msg)
		return nil, pkgErrors.WrapErrorWithLang(ctx, fmt.Errorf("gateway http %d: %s", resp.StatusCode, msg), orderErrors.ErrCodePayGateRequestFailed)
	}

	if !gjson.ValidBytes(raw) {
		return nil, pkgErrors.WrapErrorWithLang(ctx, fmt.Errorf("gateway returned non-JSON body"), orderErrors.ErrCodePayGateBadResponse)
	}
	return raw, nil
}
