package checkout

// Context is everything the buyer filled in on the checkout page. It is
// a plain value: validation never mutates it.
type Context struct {
	BuyerName  string
	BuyerPhone string
	BuyerEmail string

	ZipCode         string
	Address         string
	AddressDetail   string
	DeliveryMessage string

	AgreeTerms     bool
	AgreePrivacy   bool
	AgreeMarketing bool

	// Method is one of card, simple or bank.
	Method         string
	CardID         int64
	WalletProvider string
	BankCode       string
	DepositorName  string

	CouponID        string
	RequestedPoints int64
}
