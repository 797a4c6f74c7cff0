package engine

// polarity is the built-in sentiment lexicon: word to valence in
// [-5, 5], AFINN style. The table is interchangeable data; the
// -0.5 threshold and +12 weight in sentiment.go are the contract.
var polarity = map[string]int{
	// strongly negative
	"terminate":    -3,
	"terminated":   -3,
	"suspend":      -2,
	"suspended":    -2,
	"frozen":       -2,
	"locked":       -2,
	"blocked":      -2,
	"restricted":   -2,
	"deactivated":  -2,
	"breach":       -3,
	"breached":     -3,
	"compromised":  -3,
	"unauthorized": -3,
	"illegal":      -3,
	"fraud":        -4,
	"fraudulent":   -4,
	"scam":         -4,
	"stolen":       -3,
	"theft":        -3,
	"criminal":     -3,
	"prosecution":  -3,
	"lawsuit":      -3,
	"penalty":      -2,
	"fine":         -2,
	"fines":        -2,
	"arrest":       -3,
	"arrested":     -3,
	"seize":        -2,
	"seized":       -2,
	"police":       -1,
	"court":        -2,
	"legal":        -1,
	"violation":    -3,
	"violations":   -3,
	"warning":      -2,
	"warned":       -2,
	"danger":       -3,
	"dangerous":    -3,
	"threat":       -3,
	"threats":      -3,
	"threatened":   -3,
	"risk":         -2,
	"risks":        -2,
	"lose":         -2,
	"loses":        -2,
	"losing":       -3,
	"lost":         -3,
	"loss":         -3,
	"fail":         -2,
	"failed":       -2,
	"failure":      -2,
	"problem":      -2,
	"problems":     -2,
	"error":        -2,
	"errors":       -2,
	"invalid":      -2,
	"expired":      -1,
	"expire":       -1,
	"expires":      -1,
	"overdue":      -2,
	"unpaid":       -2,
	"debt":         -2,
	"urgent":       -1,
	"urgently":     -1,
	"immediately":  -1,
	"emergency":    -2,
	"alert":        -1,
	"attacked":     -3,
	"attack":       -3,
	"hacked":       -3,
	"hacker":       -3,
	"hackers":      -3,
	"malicious":    -3,
	"virus":        -3,
	"malware":      -3,
	"infected":     -3,
	"suspicious":   -2,
	"denied":       -2,
	"refused":      -2,
	"rejected":     -2,
	"cancelled":    -1,
	"canceled":     -1,
	"disabled":     -1,
	"closed":       -1,
	"bad":          -3,
	"worse":        -3,
	"worst":        -3,
	"never":        -1,
	"no":           -1,
	"not":          -1,

	// positive
	"congratulations": 2,
	"winner":          2,
	"won":             3,
	"win":             3,
	"free":            1,
	"prize":           2,
	"reward":          2,
	"rewards":         2,
	"bonus":           2,
	"gift":            2,
	"exclusive":       1,
	"special":         1,
	"amazing":         3,
	"fantastic":       4,
	"wonderful":       4,
	"great":           3,
	"good":            3,
	"best":            3,
	"happy":           3,
	"love":            3,
	"thanks":          2,
	"thank":           2,
	"welcome":         2,
	"enjoy":           2,
	"safe":            1,
	"secure":          1,
	"guaranteed":      1,
	"success":         2,
	"successful":      2,
	"approved":        2,
	"yes":             1,
}
