package models

import "github.com/shopspring/decimal"

// MaxQty is the largest quantity a cart line may hold.
const MaxQty = 1<<31 - 1

// MaxAmount is the largest value a DECIMAL(9,2) money column holds.
var MaxAmount = decimal.RequireFromString("9999999.99")

type Customer struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  uint   `gorm:"uniqueIndex;not null"     json:"user_id"`
	Phone   string `gorm:"size:20"                  json:"phone"`
	Address string `gorm:"size:255"                 json:"address"`
}

type Cart struct {
	ID               uint            `gorm:"primaryKey;autoIncrement"          json:"id"`
	OwnerID          *uint           `gorm:"index"                             json:"owner_id"`
	Products         []CartProduct   `gorm:"foreignKey:CartID"                 json:"products"`
	TotalProducts    uint            `gorm:"default:0"                         json:"total_products"`
	FinalPrice       decimal.Decimal `gorm:"type:decimal(9,2);not null;default:0" json:"final_price"`
	InOrder          bool            `gorm:"default:false"                     json:"in_order"`
	ForAnonymousUser bool            `gorm:"default:false"                     json:"for_anonymous_user"`
}

// Recalculate derives the totals from the loaded lines; an empty cart totals zero.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, p := range c.Products {
		total = total.Add(p.FinalPrice)
	}
	c.FinalPrice = total
	c.TotalProducts = uint(len(c.Products))
}

type CartProduct struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"                 json:"id"`
	CustomerID  uint            `gorm:"index;not null"                           json:"customer_id"`
	CartID      uint            `gorm:"uniqueIndex:idx_cart_object;not null"     json:"cart_id"`
	ContentType string          `gorm:"size:32;uniqueIndex:idx_cart_object"      json:"content_type"`
	ObjectID    uint            `gorm:"uniqueIndex:idx_cart_object;not null"     json:"object_id"`
	Qty         uint            `gorm:"default:1;check:qty > 0"                  json:"qty"`
	FinalPrice  decimal.Decimal `gorm:"type:decimal(9,2);not null"               json:"final_price"`
	Product     Product         `gorm:"-"                                        json:"product,omitempty"`
}

func (cp *CartProduct) Recalculate(unitPrice decimal.Decimal) {
	cp.FinalPrice = unitPrice.Mul(decimal.NewFromInt(int64(cp.Qty)))
}
