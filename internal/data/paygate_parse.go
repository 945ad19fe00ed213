package data

import (
	"strings"

	"github.com/tidwall/gjson"
)

// 网关同一概念的已知字段别名，按优先级排列。transectionID 不是笔误，
// 是网关回调真实使用的拼写。
var (
	chargeIDAliases = []string{
		"transectionID", "transactionId", "transaction_id", "transectionId",
		"chargeId", "charge_id", "txn_id", "referenceId",
	}
	orderRefAliases = []string{
		"orderid", "orderId", "order_id", "orderNo", "order_no",
		"referenceNo", "reference_no", "merchantOrderId",
	}
	statusAliases = []string{
		"status", "paymentStatus", "payment_status", "txn_status", "respCode",
	}
	amountAliases = []string{
		"amount", "total", "totalAmount", "total_amount",
	}
	hashAliases = []string{
		"hash", "signature", "checksum", "checkSum",
	}
	redirectURLAliases = []string{
		"paymentUrl", "payment_url", "redirectUrl", "redirect_url",
		"checkoutUrl", "checkout_url", "webUrl", "url",
	}
	qrImageAliases = []string{
		"qrImage", "qr_image", "qrcode", "qrCode", "qr_url", "imageUrl", "image",
	}
	embedHTMLAliases = []string{
		"htmlForm", "html_form", "embedHtml", "embed_html", "formHtml",
	}
	paymentTypeAliases = []string{
		"paymentType", "payment_type", "channel", "method",
	}
	errorMessageAliases = []string{
		"message", "errMsg", "error_message", "errorMessage", "msg", "detail", "reason",
	}
)

// scanMaxDepth 兜底递归扫描的深度上限
const scanMaxDepth = 4

// unwrapRoot 网关有的接口把对象包在数组里返回，取第一个元素
func unwrapRoot(body []byte) gjson.Result {
	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		arr := doc.Array()
		if len(arr) > 0 {
			return arr[0]
		}
	}
	return doc
}

// firstString 依别名优先级取第一个非空字符串。数字值也按字符串取出
// （金额、订单号常以数字出现）。
func firstString(doc gjson.Result, keys ...string) string {
	for _, key := range keys {
		v := doc.Get(key)
		if !v.Exists() {
			continue
		}
		if s := v.String(); s != "" {
			return s
		}
	}
	// 有些响应把业务数据再包一层 data/result
	for _, wrapper := range []string{"data", "result"} {
		inner := doc.Get(wrapper)
		if !inner.Exists() || !inner.IsObject() {
			continue
		}
		for _, key := range keys {
			v := inner.Get(key)
			if !v.Exists() {
				continue
			}
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

// scanString 有界深度递归扫描任意字段，找第一个满足 match 的字符串值。
// 已知别名全落空时的最后兜底。
func scanString(doc gjson.Result, depth int, match func(string) bool) string {
	if depth <= 0 {
		return ""
	}
	var found string
	doc.ForEach(func(_, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			if match(value.String()) {
				found = value.String()
				return false
			}
		case value.IsObject() || value.IsArray():
			if s := scanString(value, depth-1, match); s != "" {
				found = s
				return false
			}
		}
		return true
	})
	return found
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func looksLikeImage(s string) bool {
	if strings.HasPrefix(s, "data:image/") {
		return true
	}
	if !looksLikeURL(s) {
		return false
	}
	lower := strings.ToLower(s)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".svg"} {
		if strings.HasSuffix(lower, ext) || strings.Contains(lower, ext+"?") {
			return true
		}
	}
	return strings.Contains(lower, "qr")
}

// embeddedError 网关会在 200 响应里内嵌错误：status 文本标成 error，
// 或数字码非零/非 200。
func embeddedError(doc gjson.Result) (string, bool) {
	status := doc.Get("status")
	if status.Type == gjson.String {
		switch strings.ToLower(status.String()) {
		case "error", "failed", "invalid":
			return extractErrorMessage(doc), true
		}
	}

	for _, key := range []string{"code", "respCode", "errorCode", "error_code"} {
		v := doc.Get(key)
		if !v.Exists() {
			continue
		}
		if v.Type == gjson.Number {
			code := v.Int()
			if code != 0 && code != 200 {
				return extractErrorMessage(doc), true
			}
		}
		break
	}
	return "", false
}

// extractErrorMessage 从多个可能的错误信息字段里取第一个非空值
func extractErrorMessage(doc gjson.Result) string {
	if msg := firstString(doc, errorMessageAliases...); msg != "" {
		return msg
	}
	if inner := doc.Get("error"); inner.Exists() {
		if inner.Type == gjson.String {
			return inner.String()
		}
		if inner.IsObject() {
			return firstString(inner, errorMessageAliases...)
		}
	}
	return ""
}
