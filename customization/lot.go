package customization

// LotSize selects a production run. It never changes how the cone looks.
type LotSize string

const (
	LotSample    LotSize = "sample"
	LotStarter   LotSize = "starter"
	LotBusiness  LotSize = "business"
	LotWholesale LotSize = "wholesale"
)

// Tier is the catalog entry behind a LotSize.
type Tier struct {
	ID       LotSize `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	LeadTime string  `json:"leadTime"`
}

// LotSizes in ascending quantity.
var LotSizes = []Tier{
	{ID: LotSample, Name: "Sample Pack", Quantity: 500, LeadTime: "1-2 weeks"},
	{ID: LotStarter, Name: "Starter", Quantity: 5000, LeadTime: "2-3 weeks"},
	{ID: LotBusiness, Name: "Business", Quantity: 25000, LeadTime: "3-4 weeks"},
	{ID: LotWholesale, Name: "Wholesale", Quantity: 100000, LeadTime: "4-6 weeks"},
}

func (l LotSize) Valid() bool {
	_, ok := l.Tier()
	return ok
}

// Tier looks up the catalog entry for l.
func (l LotSize) Tier() (Tier, bool) {
	for _, t := range LotSizes {
		if t.ID == l {
			return t, true
		}
	}
	return Tier{}, false
}
