package paypal

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/rabbitstore/checkout/internal/domain/payment"
)

// encodeCreatePayment builds the create-payment request body: a sale intent
// with an itemized list and the server-computed total, all amounts formatted
// to the currency's minor-unit precision.
func encodeCreatePayment(cfg Config, items []payment.Item, total decimal.Decimal, currency string) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("intent", func(e *jx.Encoder) { e.Str("sale") })
		e.Field("payer", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("payment_method", func(e *jx.Encoder) { e.Str("paypal") })
			})
		})
		e.Field("redirect_urls", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("return_url", func(e *jx.Encoder) { e.Str(cfg.ReturnURL) })
				e.Field("cancel_url", func(e *jx.Encoder) { e.Str(cfg.CancelURL) })
			})
		})
		e.Field("transactions", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("item_list", func(e *jx.Encoder) {
						e.Obj(func(e *jx.Encoder) {
							e.Field("items", func(e *jx.Encoder) {
								e.Arr(func(e *jx.Encoder) {
									for _, it := range items {
										item := it
										e.Obj(func(e *jx.Encoder) {
											e.Field("name", func(e *jx.Encoder) { e.Str(item.Name) })
											e.Field("sku", func(e *jx.Encoder) { e.Str(item.SKU) })
											e.Field("price", func(e *jx.Encoder) { e.Str(item.UnitPrice.StringFixed(2)) })
											e.Field("currency", func(e *jx.Encoder) { e.Str(currency) })
											e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
										})
									}
								})
							})
						})
					})
					e.Field("amount", func(e *jx.Encoder) {
						e.Obj(func(e *jx.Encoder) {
							e.Field("currency", func(e *jx.Encoder) { e.Str(currency) })
							e.Field("total", func(e *jx.Encoder) { e.Str(total.StringFixed(2)) })
						})
					})
					e.Field("description", func(e *jx.Encoder) { e.Str(cfg.Description) })
				})
			})
		})
	})
	return e.Bytes()
}

// decodeCreatePayment extracts the payment id and the approval redirect link
// from the create-payment response.
func decodeCreatePayment(data []byte) (*payment.Intent, error) {
	var intent payment.Intent

	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			id, err := d.Str()
			if err != nil {
				return err
			}
			intent.ID = id
			return nil
		case "links":
			return d.Arr(func(d *jx.Decoder) error {
				var rel, href string
				err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "rel":
						v, err := d.Str()
						rel = v
						return err
					case "href":
						v, err := d.Str()
						href = v
						return err
					default:
						return d.Skip()
					}
				})
				if err != nil {
					return err
				}
				if rel == "approval_url" {
					intent.ApprovalURL = href
				}
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}

	if intent.ID == "" {
		return nil, errors.New("response missing payment id")
	}
	if intent.ApprovalURL == "" {
		return nil, errors.New("response missing approval_url link")
	}
	return &intent, nil
}

// decodeToken extracts the bearer token and its lifetime from an OAuth2
// client-credentials response.
func decodeToken(data []byte) (token string, expiresIn int, err error) {
	d := jx.DecodeBytes(data)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "access_token":
			v, err := d.Str()
			token = v
			return err
		case "expires_in":
			v, err := d.Int()
			expiresIn = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return "", 0, err
	}
	if token == "" {
		return "", 0, errors.New("response missing access_token")
	}
	return token, expiresIn, nil
}
