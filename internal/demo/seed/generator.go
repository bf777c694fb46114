package seed

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Dataset is an intentionally messy retail database: abbreviated column
// names, amounts stored as text in mixed formats, missing cities and emails.
type Dataset struct {
	Stores    []Store
	Products  []Product
	Customers []Customer
	Sales     []Sale
	Returns   []Return
}

type Store struct {
	ID       int64
	Name     string
	City     *string
	Region   string
	BranchNo int
	Opened   string
}

type Product struct {
	ID       int64
	Name     string
	Category string
	Cost     string
	ListPrc  float64
}

type Customer struct {
	ID      int64
	Name    string
	Email   *string
	Segment string
	Joined  string
}

type Sale struct {
	ID         int64
	StoreID    int64
	ProductID  int64
	CustomerID *int64
	Qty        int
	Amount     string
	Date       string
	Hour       int
	Payment    string
}

type Return struct {
	ID     int64
	SaleID int64
	Date   string
	Reason *string
	Refund float64
}

const suspiciousBranch = 7

var (
	cities     = []string{"Berlin", "Hamburg", "Munich", "Cologne", "Frankfurt", "Leipzig", "Dresden", "Stuttgart"}
	regions    = []string{"North", "South", "East", "West"}
	categories = []string{"Electronics", "Home", "Garden", "Toys", "Apparel"}
	adjectives = []string{"Basic", "Pro", "Ultra", "Eco", "Mini", "Max"}
	nouns      = []string{"Kettle", "Drill", "Lamp", "Blender", "Jacket", "Speaker", "Hose", "Puzzle"}
	segments   = []string{"retail", "RETAIL", "wholesale", "vip", "Vip "}
	payments   = []string{"card", "cash", "CARD", "voucher"}
	reasons    = []string{"damaged", "wrong size", "changed mind", "late delivery"}
	firstNames = []string{"Anna", "Ben", "Clara", "Deniz", "Emil", "Fatma", "Gustav", "Hana"}
	lastNames  = []string{"Schmidt", "Yilmaz", "Nowak", "Weber", "Rossi", "Klein"}
)

type Generator struct {
	rnd *rand.Rand
	cfg Config
}

func NewGenerator(cfg Config) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(cfg.Seed)), cfg: cfg}
}

// Generate builds the whole dataset. The same Config always yields the same
// Dataset.
func (g *Generator) Generate() Dataset {
	var ds Dataset
	for i := 1; i <= g.cfg.Stores; i++ {
		ds.Stores = append(ds.Stores, g.store(int64(i)))
	}
	for i := 1; i <= g.cfg.Products; i++ {
		ds.Products = append(ds.Products, g.product(int64(i)))
	}
	for i := 1; i <= g.cfg.Customers; i++ {
		ds.Customers = append(ds.Customers, g.customer(int64(i)))
	}
	for i := 1; i <= g.cfg.Sales; i++ {
		sale, unitPrice := g.sale(int64(i), ds.Products)
		ds.Sales = append(ds.Sales, sale)
		if rtn, ok := g.maybeReturn(int64(len(ds.Returns)+1), sale, unitPrice); ok {
			ds.Returns = append(ds.Returns, rtn)
		}
	}
	return ds
}

func (g *Generator) store(id int64) Store {
	store := Store{
		ID:       id,
		Name:     fmt.Sprintf("STR-%03d", id),
		Region:   pickOne(g.rnd, regions),
		BranchNo: int(id),
		Opened:   g.cfg.Start.AddDate(-g.rnd.Intn(8)-1, -g.rnd.Intn(12), 0).Format(time.DateOnly),
	}
	// Roughly one store in six has no city on record.
	if g.rnd.Intn(6) != 0 {
		city := pickOne(g.rnd, cities)
		if g.rnd.Intn(4) == 0 {
			city = strings.ToUpper(city)
		}
		store.City = &city
	}
	return store
}

func (g *Generator) product(id int64) Product {
	listPrice := round2(5 + g.rnd.Float64()*195)
	cost := listPrice * (0.35 + g.rnd.Float64()*0.6)
	return Product{
		ID:       id,
		Name:     fmt.Sprintf("%s %s %d", pickOne(g.rnd, adjectives), pickOne(g.rnd, nouns), id),
		Category: pickOne(g.rnd, categories),
		Cost:     g.messyAmount(cost),
		ListPrc:  listPrice,
	}
}

func (g *Generator) customer(id int64) Customer {
	first, last := pickOne(g.rnd, firstNames), pickOne(g.rnd, lastNames)
	customer := Customer{
		ID:      id,
		Name:    first + " " + last,
		Segment: pickOne(g.rnd, segments),
		Joined:  g.cfg.Start.AddDate(0, 0, -g.rnd.Intn(900)).Format(time.DateOnly),
	}
	if g.rnd.Intn(5) != 0 {
		email := fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), id)
		customer.Email = &email
	}
	return customer
}

func (g *Generator) sale(id int64, products []Product) (Sale, float64) {
	day := g.rnd.Intn(365)
	date := g.cfg.Start.AddDate(0, 0, day)
	storeID := int64(g.rnd.Intn(g.cfg.Stores) + 1)
	product := products[g.rnd.Intn(len(products))]
	qty := 1 + g.rnd.Intn(4)

	// Revenue dips in Q2 and peaks in the holiday season.
	factor := 1.0
	switch date.Month() {
	case time.April, time.May, time.June:
		factor = 0.6
	case time.November, time.December:
		factor = 1.4
	}
	unitPrice := product.ListPrc * factor * (0.85 + g.rnd.Float64()*0.3)

	hour := 9 + g.rnd.Intn(11)
	if storeID == suspiciousBranch && g.rnd.Intn(3) == 0 {
		hour = g.rnd.Intn(5)
		qty = 10 + g.rnd.Intn(20)
	}

	sale := Sale{
		ID:        id,
		StoreID:   storeID,
		ProductID: product.ID,
		Qty:       qty,
		Amount:    g.messyAmount(unitPrice * float64(qty)),
		Date:      date.Format(time.DateOnly),
		Hour:      hour,
		Payment:   pickOne(g.rnd, payments),
	}
	if g.rnd.Intn(10) != 0 {
		customerID := int64(g.rnd.Intn(g.cfg.Customers) + 1)
		sale.CustomerID = &customerID
	}
	return sale, unitPrice
}

func (g *Generator) maybeReturn(id int64, sale Sale, unitPrice float64) (Return, bool) {
	chance := 12
	if sale.StoreID == suspiciousBranch {
		chance = 4
	}
	if g.rnd.Intn(chance) != 0 {
		return Return{}, false
	}
	saleDate, err := time.Parse(time.DateOnly, sale.Date)
	if err != nil {
		return Return{}, false
	}
	rtn := Return{
		ID:     id,
		SaleID: sale.ID,
		Date:   saleDate.AddDate(0, 0, 1+g.rnd.Intn(30)).Format(time.DateOnly),
		Refund: round2(unitPrice * float64(1+g.rnd.Intn(sale.Qty))),
	}
	if g.rnd.Intn(3) != 0 {
		reason := pickOne(g.rnd, reasons)
		rtn.Reason = &reason
	}
	return rtn, true
}

// messyAmount renders value in one of several text formats found in the
// source systems: plain, currency prefixed, thousands separated or comma decimal.
func (g *Generator) messyAmount(value float64) string {
	value = round2(value)
	switch g.rnd.Intn(4) {
	case 0:
		return fmt.Sprintf("%.2f", value)
	case 1:
		return fmt.Sprintf("$%.2f", value)
	case 2:
		return withThousands(value)
	default:
		return strings.Replace(fmt.Sprintf("%.2f", value), ".", ",", 1) + " EUR"
	}
}

func withThousands(value float64) string {
	whole := int64(value)
	cents := int64(math.Round((value - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s.%02d", b.String(), cents)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
