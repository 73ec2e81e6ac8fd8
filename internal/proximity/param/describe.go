package param

import (
	"fmt"
	"strings"
)

// Description lists what a function accepts, for help output.
type Description struct {
	Text  string `json:"text"`
	Items []Item `json:"items"`
}

// Item is one parameter or feature accepted by a function.
type Item struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Text string `json:"text"`
}

const (
	ItemFeature = "feature"
	ItemNumeric = "numeric"
	ItemString  = "string"
)

var (
	maxWindowSizeItem = Item{
		Kind: ItemNumeric,
		Name: "maxwinsize",
		Text: "maximum distance between the first and the last position of a window",
	}
	cardinalityItem = Item{
		Kind: ItemNumeric,
		Name: "cardinality",
		Text: "minimum number of features in a window, 0 for all of them",
	}
	forwardIndexTypeItem = Item{
		Kind: ItemString,
		Name: "type",
		Text: "forward index type used to build the snippet",
	}
)

// Items returns the parameters accepted by kind.
func Items(kind Kind) []Item {
	items := []Item{maxWindowSizeItem, cardinalityItem}
	if kind == Summarizer {
		items = append(items, forwardIndexTypeItem)
	}
	return items
}

func (d Description) String() string {
	var b strings.Builder
	b.WriteString(d.Text)
	for _, it := range d.Items {
		fmt.Fprintf(&b, "\n  %-8s %-12s %s", it.Kind, it.Name, it.Text)
	}
	return b.String()
}
