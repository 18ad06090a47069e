package checkout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validCardContext() Context {
	return Context{
		BuyerName:    "Kim Jiwoo",
		BuyerPhone:   "010-1234-5678",
		BuyerEmail:   "jiwoo@example.com",
		ZipCode:      "06236",
		Address:      "Teheran-ro 427, Gangnam-gu",
		AgreeTerms:   true,
		AgreePrivacy: true,
		Method:       "card",
		CardID:       3,
	}
}

func TestValidatePassesCompleteCardCheckout(t *testing.T) {
	require.Nil(t, Validate(validCardContext(), nil))
}

func TestValidateFailFastOrdering(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Context)
		field  string
		reason string
	}{
		{"missing name", func(c *Context) { c.BuyerName = " " }, "buyerName", "required"},
		{"missing phone", func(c *Context) { c.BuyerPhone = "" }, "buyerPhone", "required"},
		{"missing email", func(c *Context) { c.BuyerEmail = "" }, "buyerEmail", "required"},
		{"malformed email", func(c *Context) { c.BuyerEmail = "not-an-email" }, "buyerEmail", "invalid"},
		{"missing zip", func(c *Context) { c.ZipCode = "" }, "zipCode", "required"},
		{"missing address", func(c *Context) { c.Address = "" }, "address", "required"},
		{"terms not agreed", func(c *Context) { c.AgreeTerms = false }, "agreeTerms", "required"},
		{"privacy not agreed", func(c *Context) { c.AgreePrivacy = false }, "agreePrivacy", "required"},
		{"no card selected", func(c *Context) { c.CardID = 0 }, "cardId", "required"},
		{"unknown method", func(c *Context) { c.Method = "crypto" }, "paymentMethod", "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCardContext()
			tt.mutate(&c)
			verr := Validate(c, nil)
			require.NotNil(t, verr)
			require.Equal(t, tt.field, verr.Field)
			require.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestValidateReturnsOnlyFirstFailure(t *testing.T) {
	c := validCardContext()
	c.BuyerName = ""
	c.ZipCode = ""
	c.AgreeTerms = false

	verr := Validate(c, nil)
	require.NotNil(t, verr)
	require.Equal(t, "buyerName", verr.Field)
}

func TestValidateBuyerBeforeAddressBeforeAgreementsBeforePayment(t *testing.T) {
	c := validCardContext()
	c.ZipCode = ""
	c.CardID = 0

	verr := Validate(c, nil)
	require.NotNil(t, verr)
	require.Equal(t, "zipCode", verr.Field, "address gate runs before payment gate")
}

func TestValidateMarketingConsentNeverRequired(t *testing.T) {
	c := validCardContext()
	c.AgreeMarketing = false
	require.Nil(t, Validate(c, nil))
}

func TestValidateWallet(t *testing.T) {
	c := validCardContext()
	c.Method = "simple"
	c.CardID = 0

	c.WalletProvider = ""
	verr := Validate(c, map[string]bool{"kakaopay": true})
	require.NotNil(t, verr)
	require.Equal(t, "walletProvider", verr.Field)
	require.Equal(t, "required", verr.Reason)

	c.WalletProvider = "cashapp"
	verr = Validate(c, map[string]bool{"kakaopay": true})
	require.NotNil(t, verr)
	require.Equal(t, "unsupported", verr.Reason)

	c.WalletProvider = "naverpay"
	verr = Validate(c, map[string]bool{"kakaopay": true})
	require.NotNil(t, verr)
	require.Equal(t, "not linked", verr.Reason)

	c.WalletProvider = "kakaopay"
	require.Nil(t, Validate(c, map[string]bool{"kakaopay": true}))
}

func TestValidateBankTransfer(t *testing.T) {
	c := validCardContext()
	c.Method = "bank"
	c.CardID = 0

	verr := Validate(c, nil)
	require.NotNil(t, verr)
	require.Equal(t, "bankCode", verr.Field)

	c.BankCode = "088"
	verr = Validate(c, nil)
	require.NotNil(t, verr)
	require.Equal(t, "depositorName", verr.Field)

	c.DepositorName = "Kim Jiwoo"
	require.Nil(t, Validate(c, nil))
}

func TestValidateDoesNotMutateContext(t *testing.T) {
	c := validCardContext()
	before := c
	_ = Validate(c, map[string]bool{"kakaopay": true})
	require.Equal(t, before, c)
}
