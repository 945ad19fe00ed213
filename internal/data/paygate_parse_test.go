package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestUnwrapRoot(t *testing.T) {
	doc := unwrapRoot([]byte(`[{"status":"OK"}]`))
	assert.Equal(t, "OK", doc.Get("status").String())

	doc = unwrapRoot([]byte(`{"status":"OK"}`))
	assert.Equal(t, "OK", doc.Get("status").String())

	doc = unwrapRoot([]byte(`[]`))
	assert.False(t, doc.Get("status").Exists())
}

func TestFirstString_AliasPriority(t *testing.T) {
	doc := gjson.Parse(`{"transaction_id":"low","transectionID":"high"}`)
	assert.Equal(t, "high", firstString(doc, chargeIDAliases...))
}

func TestFirstString_SkipsEmptyValues(t *testing.T) {
	doc := gjson.Parse(`{"transectionID":"","transactionId":"txn-1"}`)
	assert.Equal(t, "txn-1", firstString(doc, chargeIDAliases...))
}

func TestFirstString_DataWrapper(t *testing.T) {
	doc := gjson.Parse(`{"code":0,"data":{"transectionID":"txn-1"}}`)
	assert.Equal(t, "txn-1", firstString(doc, chargeIDAliases...))

	doc = gjson.Parse(`{"result":{"status":"PaySuccess"}}`)
	assert.Equal(t, "PaySuccess", firstString(doc, statusAliases...))
}

func TestFirstString_NumberAsString(t *testing.T) {
	doc := gjson.Parse(`{"amount":1500.5}`)
	assert.Equal(t, "1500.5", firstString(doc, amountAliases...))
}

func TestScanString_BoundedDepth(t *testing.T) {
	doc := gjson.Parse(`{"a":{"b":{"c":"https://pay.example.com/x"}}}`)
	assert.Equal(t, "https://pay.example.com/x", scanString(doc, scanMaxDepth, looksLikeURL))

	// 深度超限不再下探
	deep := gjson.Parse(`{"a":{"b":{"c":{"d":{"e":"https://pay.example.com/x"}}}}}`)
	assert.Empty(t, scanString(deep, scanMaxDepth, looksLikeURL))
}

func TestLooksLikeImage(t *testing.T) {
	assert.True(t, looksLikeImage("data:image/png;base64,AAAA"))
	assert.True(t, looksLikeImage("https://cdn.example.com/qr/abc.png"))
	assert.True(t, looksLikeImage("https://cdn.example.com/abc.jpeg?x=1"))
	assert.True(t, looksLikeImage("https://pay.example.com/qr/abc"))
	assert.False(t, looksLikeImage("https://pay.example.com/checkout/abc"))
	assert.False(t, looksLikeImage("abc.png"))
}

func TestEmbeddedError(t *testing.T) {
	msg, bad := embeddedError(gjson.Parse(`{"status":"error","message":"invalid merchant"}`))
	assert.True(t, bad)
	assert.Equal(t, "invalid merchant", msg)

	_, bad = embeddedError(gjson.Parse(`{"status":"OK"}`))
	assert.False(t, bad)

	msg, bad = embeddedError(gjson.Parse(`{"code":4001,"errMsg":"bad amount"}`))
	assert.True(t, bad)
	assert.Equal(t, "bad amount", msg)

	_, bad = embeddedError(gjson.Parse(`{"code":0,"data":{}}`))
	assert.False(t, bad)

	_, bad = embeddedError(gjson.Parse(`{"code":200}`))
	assert.False(t, bad)
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", extractErrorMessage(gjson.Parse(`{"message":"boom"}`)))
	assert.Equal(t, "boom", extractErrorMessage(gjson.Parse(`{"error":"boom"}`)))
	assert.Equal(t, "boom", extractErrorMessage(gjson.Parse(`{"error":{"message":"boom"}}`)))
	assert.Empty(t, extractErrorMessage(gjson.Parse(`{}`)))
}
