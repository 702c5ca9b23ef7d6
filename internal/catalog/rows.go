package catalog

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Row types mirror the PrestaShop tables read by the exporter. Table names are
// resolved through Store.table so the shop's DB prefix applies.

type configurationRow struct {
	IDConfiguration int64  `gorm:"column:id_configuration;primaryKey"`
	Name            string `gorm:"column:name"`
	Value           string `gorm:"column:value"`
}

type langRow struct {
	IDLang  int64  `gorm:"column:id_lang;primaryKey"`
	IsoCode string `gorm:"column:iso_code"`
	Name    string `gorm:"column:name"`
}

type productRow struct {
	IDProduct         int64           `gorm:"column:id_product;primaryKey"`
	IDCategoryDefault int64           `gorm:"column:id_category_default"`
	IDTaxRulesGroup   int64           `gorm:"column:id_tax_rules_group"`
	Quantity          int64           `gorm:"column:quantity"`
	Price             decimal.Decimal `gorm:"column:price;type:decimal(20,6)"`
	WholesalePrice    decimal.Decimal `gorm:"column:wholesale_price;type:decimal(20,6)"`
	Reference         string          `gorm:"column:reference"`
	Active            int             `gorm:"column:active"`
	ShowPrice         int             `gorm:"column:show_price"`
	Visibility        string          `gorm:"column:visibility"`
	Width             decimal.Decimal `gorm:"column:width;type:decimal(20,6)"`
	Height            decimal.Decimal `gorm:"column:height;type:decimal(20,6)"`
	Depth             decimal.Decimal `gorm:"column:depth;type:decimal(20,6)"`
	Weight            decimal.Decimal `gorm:"column:weight;type:decimal(20,6)"`
}

type productLangRow struct {
	IDProduct   int64  `gorm:"column:id_product;primaryKey"`
	IDShop      int64  `gorm:"column:id_shop;primaryKey"`
	IDLang      int64  `gorm:"column:id_lang;primaryKey"`
	Name        string `gorm:"column:name"`
	Description string `gorm:"column:description"`
	LinkRewrite string `gorm:"column:link_rewrite"`
}

type productAttributeRow struct {
	IDProductAttribute int64           `gorm:"column:id_product_attribute;primaryKey"`
	IDProduct          int64           `gorm:"column:id_product"`
	Price              decimal.Decimal `gorm:"column:price;type:decimal(20,6)"`
	DefaultOn          sql.NullInt64   `gorm:"column:default_on"`
}

type imageRow struct {
	IDImage   int64 `gorm:"column:id_image;primaryKey"`
	IDProduct int64 `gorm:"column:id_product"`
}

type taxRow struct {
	IDTax int64           `gorm:"column:id_tax;primaryKey"`
	Rate  decimal.Decimal `gorm:"column:rate;type:decimal(10,3)"`
}

type taxRuleRow struct {
	IDTaxRule       int64 `gorm:"column:id_tax_rule;primaryKey"`
	IDTaxRulesGroup int64 `gorm:"column:id_tax_rules_group"`
	IDCountry       int64 `gorm:"column:id_country"`
	IDTax           int64 `gorm:"column:id_tax"`
}

type specificPriceRow struct {
	IDSpecificPrice     int64           `gorm:"column:id_specific_price;primaryKey"`
	IDSpecificPriceRule int64           `gorm:"column:id_specific_price_rule"`
	IDCart              int64           `gorm:"column:id_cart"`
	IDProduct           int64           `gorm:"column:id_product"`
	IDShop              int64           `gorm:"column:id_shop"`
	IDShopGroup         int64           `gorm:"column:id_shop_group"`
	IDCurrency          int64           `gorm:"column:id_currency"`
	IDCountry           int64           `gorm:"column:id_country"`
	IDGroup             int64           `gorm:"column:id_group"`
	IDCustomer          int64           `gorm:"column:id_customer"`
	IDProductAttribute  int64           `gorm:"column:id_product_attribute"`
	Price               decimal.Decimal `gorm:"column:price;type:decimal(20,6)"`
	FromQuantity        int             `gorm:"column:from_quantity"`
	Reduction           decimal.Decimal `gorm:"column:reduction;type:decimal(20,6)"`
	ReductionTax        int             `gorm:"column:reduction_tax"`
	ReductionType       string          `gorm:"column:reduction_type"`
	From                sql.NullTime    `gorm:"column:from"`
	To                  sql.NullTime    `gorm:"column:to"`
}

type specificPriceRuleRow struct {
	IDSpecificPriceRule int64           `gorm:"column:id_specific_price_rule;primaryKey"`
	Name                string          `gorm:"column:name"`
	IDShop              int64           `gorm:"column:id_shop"`
	IDCurrency          int64           `gorm:"column:id_currency"`
	IDCountry           int64           `gorm:"column:id_country"`
	IDGroup             int64           `gorm:"column:id_group"`
	FromQuantity        int             `gorm:"column:from_quantity"`
	Price               decimal.Decimal `gorm:"column:price;type:decimal(20,6)"`
	Reduction           decimal.Decimal `gorm:"column:reduction;type:decimal(20,6)"`
	ReductionTax        int             `gorm:"column:reduction_tax"`
	ReductionType       string          `gorm:"column:reduction_type"`
	From                sql.NullTime    `gorm:"column:from"`
	To                  sql.NullTime    `gorm:"column:to"`
}

type conditionGroupRow struct {
	IDSpecificPriceRuleConditionGroup int64 `gorm:"column:id_specific_price_rule_condition_group;primaryKey"`
	IDSpecificPriceRule               int64 `gorm:"column:id_specific_price_rule"`
}

type conditionRow struct {
	IDSpecificPriceRuleCondition      int64  `gorm:"column:id_specific_price_rule_condition;primaryKey"`
	IDSpecificPriceRuleConditionGroup int64  `gorm:"column:id_specific_price_rule_condition_group"`
	Type                              string `gorm:"column:type"`
	Value                             string `gorm:"column:value"`
}

type categoryRow struct {
	IDCategory     int64 `gorm:"column:id_category;primaryKey"`
	IDParent       int64 `gorm:"column:id_parent"`
	IsRootCategory int   `gorm:"column:is_root_category"`
}

type categoryLangRow struct {
	IDCategory  int64  `gorm:"column:id_category;primaryKey"`
	IDShop      int64  `gorm:"column:id_shop;primaryKey"`
	IDLang      int64  `gorm:"column:id_lang;primaryKey"`
	Name        string `gorm:"column:name"`
	LinkRewrite string `gorm:"column:link_rewrite"`
}

type shopRow struct {
	IDShop      int64  `gorm:"column:id_shop;primaryKey"`
	IDShopGroup int64  `gorm:"column:id_shop_group"`
	Name        string `gorm:"column:name"`
}

type customerRow struct {
	IDCustomer int64        `gorm:"column:id_customer;primaryKey"`
	IDShop     int64        `gorm:"column:id_shop"`
	IDGender   int64        `gorm:"column:id_gender"`
	Firstname  string       `gorm:"column:firstname"`
	Lastname   string       `gorm:"column:lastname"`
	Email      string       `gorm:"column:email"`
	Birthday   sql.NullTime `gorm:"column:birthday"`
	Newsletter int          `gorm:"column:newsletter"`
	Optin      int          `gorm:"column:optin"`
	Deleted    int          `gorm:"column:deleted"`
	DateAdd    sql.NullTime `gorm:"column:date_add"`
}

type genderLangRow struct {
	IDGender int64  `gorm:"column:id_gender;primaryKey"`
	IDLang   int64  `gorm:"column:id_lang;primaryKey"`
	Name     string `gorm:"column:name"`
}

type addressRow struct {
	IDAddress   int64  `gorm:"column:id_address;primaryKey"`
	IDCustomer  int64  `gorm:"column:id_customer"`
	Postcode    string `gorm:"column:postcode"`
	Phone       string `gorm:"column:phone"`
	PhoneMobile string `gorm:"column:phone_mobile"`
}

type orderRow struct {
	IDOrder           int64        `gorm:"column:id_order;primaryKey"`
	IDShop            int64        `gorm:"column:id_shop"`
	IDCustomer        int64        `gorm:"column:id_customer"`
	IDAddressDelivery int64        `gorm:"column:id_address_delivery"`
	CurrentState      int64        `gorm:"column:current_state"`
	DateAdd           sql.NullTime `gorm:"column:date_add"`
	DeliveryDate      sql.NullTime `gorm:"column:delivery_date"`
}

type orderDetailRow struct {
	IDOrderDetail      int64           `gorm:"column:id_order_detail;primaryKey"`
	IDOrder            int64           `gorm:"column:id_order"`
	ProductID          int64           `gorm:"column:product_id"`
	ProductAttributeID int64           `gorm:"column:product_attribute_id"`
	ProductQuantity    int64           `gorm:"column:product_quantity"`
	TotalPriceTaxIncl  decimal.Decimal `gorm:"column:total_price_tax_incl;type:decimal(20,6)"`
}
