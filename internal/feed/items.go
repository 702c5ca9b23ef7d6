package feed

import "encoding/xml"

// Feed file names and root elements.
const (
	ProductsFile   = "products.xml"
	ProductsRoot   = "PRODUCTS"
	CategoriesFile = "categories.xml"
	CategoriesRoot = "CATEGORIES"
	CustomersFile  = "customers.xml"
	CustomersRoot  = "CUSTOMERS"
	OrdersFile     = "orders.xml"
	OrdersRoot     = "ORDERS"
)

// Order states reported in the orders feed.
const (
	OrderCreated  = "created"
	OrderFinished = "finished"
	OrderCanceled = "canceled"
)

// Parameter is a named product attribute.
type Parameter struct {
	Name  string `xml:"NAME"`
	Value string `xml:"VALUE"`
}

// Variant is one priced product combination.
type Variant struct {
	ID                  int64  `xml:"VARIANT_ID"`
	Price               string `xml:"PRICE"`
	PriceBeforeDiscount string `xml:"PRICE_BEFORE_DISCOUNT,omitempty"`
}

// Product is one PRODUCT element of the product feed.
type Product struct {
	XMLName             xml.Name    `xml:"PRODUCT"`
	ProductID           int64       `xml:"PRODUCT_ID"`
	Title               string      `xml:"TITLE"`
	Description         string      `xml:"DESCRIPTION,omitempty"`
	URL                 string      `xml:"URL,omitempty"`
	Image               string      `xml:"IMAGE,omitempty"`
	CategoryText        string      `xml:"CATEGORYTEXT,omitempty"`
	Stock               int64       `xml:"STOCK"`
	Price               string      `xml:"PRICE"`
	PriceBeforeDiscount string      `xml:"PRICE_BEFORE_DISCOUNT,omitempty"`
	PriceBuy            string      `xml:"PRICE_BUY,omitempty"`
	Parameters          []Parameter `xml:"PARAMETERS>PARAMETER,omitempty"`
	Variants            []Variant   `xml:"VARIANTS>VARIANT,omitempty"`
}

// Customer is one CUSTOMER element of the customers feed.
type Customer struct {
	XMLName             xml.Name    `xml:"CUSTOMER"`
	FirstName           string      `xml:"FIRST_NAME"`
	LastName            string      `xml:"LAST_NAME"`
	CustomerID          int64       `xml:"CUSTOMER_ID"`
	Email               string      `xml:"EMAIL"`
	Phone               string      `xml:"PHONE,omitempty"`
	ZipCode             string      `xml:"ZIP_CODE,omitempty"`
	NewsletterFrequency string      `xml:"NEWSLETTER_FREQUENCY"`
	Registration        string      `xml:"REGISTRATION,omitempty"`
	Parameters          []Parameter `xml:"PARAMETERS>PARAMETER,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID int64  `xml:"PRODUCT_ID"`
	Price     string `xml:"PRICE"`
	Amount    int64  `xml:"AMOUNT"`
}

// Order is one ORDER element of the orders feed.
type Order struct {
	XMLName    xml.Name    `xml:"ORDER"`
	OrderID    int64       `xml:"ORDER_ID"`
	CustomerID int64       `xml:"CUSTOMER_ID"`
	Email      string      `xml:"EMAIL,omitempty"`
	CreatedOn  string      `xml:"CREATED_ON,omitempty"`
	FinishedOn string      `xml:"FINISHED_ON,omitempty"`
	Status     string      `xml:"STATUS"`
	ZipCode    string      `xml:"ZIP_CODE,omitempty"`
	Items      []OrderItem `xml:"ITEMS>ITEM,omitempty"`
}
