package emotion

// valenceOverrides replaces VADER valences for anger words. Stock VADER tops
// out around -2.7 for these, which keeps short outbursts like
// "I'm furious about this!" in the sad band.
var valenceOverrides = map[string]float64{
	"enraged":    -3.2,
	"furious":    -3.4,
	"infuriated": -3.4,
	"livid":      -3.2,
	"outraged":   -3.2,
}
