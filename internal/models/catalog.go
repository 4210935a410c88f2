package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	KindLaptop = "laptop"
	KindPhone  = "phone"
)

// Kinds lists every product kind in display order.
var Kinds = []string{KindLaptop, KindPhone}

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"size:255;not null"        json:"name"`
	Slug string `gorm:"size:255;uniqueIndex"     json:"slug"`
}

func (c Category) URL() string { return "/categories/" + c.Slug }

// CategoryCount is a category with the number of products of every kind filed under it.
type CategoryCount struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Count int64  `json:"count"`
}

// Product is implemented by every concrete product kind.
type Product interface {
	Kind() string
	Base() *ProductBase
	// CategorySlug is the only category this kind may be filed under.
	CategorySlug() string
}

type ProductBase struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  uint            `gorm:"index;not null"           json:"category_id"`
	Title       string          `gorm:"size:255;not null"        json:"title"`
	Slug        string          `gorm:"size:255;uniqueIndex"     json:"slug"`
	Image       string          `gorm:"size:512"                 json:"image"`
	Description string          `gorm:"type:text"                json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(9,2);not null" json:"price"`
}

type Laptop struct {
	ProductBase
	Diagonal          string `gorm:"size:255" json:"diagonal"`
	DisplayType       string `gorm:"size:255" json:"display_type"`
	ProcessorFreq     string `gorm:"size:255" json:"processor_freq"`
	RAM               string `gorm:"size:255" json:"ram"`
	Video             string `gorm:"size:255" json:"video"`
	TimeWithoutCharge string `gorm:"size:255" json:"time_without_charge"`
}

func (*Laptop) Kind() string         { return KindLaptop }
func (l *Laptop) Base() *ProductBase { return &l.ProductBase }
func (*Laptop) CategorySlug() string { return "laptops" }

type Phone struct {
	ProductBase
	Diagonal      string `gorm:"size:255" json:"diagonal"`
	DisplayType   string `gorm:"size:255" json:"display_type"`
	Resolution    string `gorm:"size:255" json:"resolution"`
	BatteryVolume string `gorm:"size:255" json:"battery_volume"`
	RAM           string `gorm:"size:255" json:"ram"`
	SD            bool   `gorm:"default:false" json:"sd"`
	SDVolumeMax   *uint  `json:"sd_volume_max"`
	MainCamera    string `gorm:"size:255" json:"main_camera"`
	FrontalCamera string `gorm:"size:255" json:"frontal_camera"`
}

func (*Phone) Kind() string         { return KindPhone }
func (p *Phone) Base() *ProductBase { return &p.ProductBase }
func (*Phone) CategorySlug() string { return "phones" }

// BeforeSave drops the SD volume of phones without an SD slot.
func (p *Phone) BeforeSave(tx *gorm.DB) error {
	p.NormalizeSD()
	return nil
}

func (p *Phone) NormalizeSD() {
	if !p.SD {
		p.SDVolumeMax = nil
	}
}

// NewProduct returns an empty product of the given kind.
func NewProduct(kind string) (Product, bool) {
	switch kind {
	case KindLaptop:
		return &Laptop{}, true
	case KindPhone:
		return &Phone{}, true
	}
	return nil, false
}

func IsKind(kind string) bool {
	_, ok := NewProduct(kind)
	return ok
}

func ProductURL(p Product) string {
	return "/products/" + p.Kind() + "/" + p.Base().Slug
}

type Specification struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"        json:"id"`
	ContentType string `gorm:"size:32;index:idx_spec_object"   json:"content_type"`
	ObjectID    uint   `gorm:"index:idx_spec_object"           json:"object_id"`
	Name        string `gorm:"size:255;not null"               json:"name"`
}
