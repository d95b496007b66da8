// Package e2e runs the full upload, ask and delete flow over the HTTP API.
package e2e

import (
	"fmt"
	"strings"
)

// CorpusDocument is one file uploaded by Owner.
type CorpusDocument struct {
	Owner   string
	Name    string
	Content string
}

// Question is asked by Asker; the top source must be the document named Expected.
type Question struct {
	Asker    string
	Query    string
	Expected string
}

// Corpus holds the documents of two users and questions about them.
type Corpus struct {
	Documents []CorpusDocument
	Questions []Question
}

// Users owns the corpus documents in alternation.
var Users = []string{"alice", "bob"}

var topics = []struct {
	name     string
	keywords string
	body     string
}{
	{"lighthouse", "lighthouse keeper lantern", "The lighthouse keeper trims the lantern wick at dusk and logs passing ships in a ledger."},
	{"beekeeping", "beekeeping hive honeycomb", "Beekeeping starts with a sturdy hive. Frames of honeycomb are inspected weekly for queen cells."},
	{"sourdough", "sourdough starter fermentation", "A sourdough starter needs daily feeding. Fermentation slows in a cold kitchen, so proof longer."},
	{"glacier", "glacier moraine crevasse", "A glacier deposits moraine at its edges. Crossing a crevasse field requires ropes and a partner."},
	{"violin", "violin bow rosin", "Rub rosin on the violin bow before playing. Loosen the hair after practice to protect the stick."},
	{"orchard", "orchard grafting rootstock", "Orchard trees are propagated by grafting scion wood onto a hardy rootstock in early spring."},
	{"telescope", "telescope eyepiece collimation", "Collimation aligns the mirrors of a reflecting telescope. A low power eyepiece helps find targets."},
	{"pottery", "pottery kiln glaze", "Pottery is bisque fired before glazing. The glaze kiln reaches a higher temperature than the first firing."},
	{"sailing", "sailing jib halyard", "Raise the jib with its halyard before leaving the mooring, then trim the sheet for the wind."},
	{"cheese", "cheese rennet curds", "Rennet sets warm milk into curds. The curds are cut, drained and pressed into a cheese mould."},
	{"falconry", "falconry jesses gauntlet", "In falconry the bird stands on a leather gauntlet, held by jesses fastened to its legs."},
	{"bookbinding", "bookbinding signatures awl", "Bookbinding folds paper into signatures, pierces them with an awl and sews them along the spine."},
}

// BuildCorpus returns one document per topic, owned alternately by Users, with a filler
// paragraph so every document spans more than one chunk, and one question per document.
func BuildCorpus() *Corpus {
	c := &Corpus{}
	for i, t := range topics {
		owner := Users[i%len(Users)]
		ext := ".txt"
		if i%3 == 2 {
			ext = ".docx"
		}
		name := fmt.Sprintf("%02d-%s%s", i+1, t.name, ext)
		c.Documents = append(c.Documents, CorpusDocument{
			Owner:   owner,
			Name:    name,
			Content: t.body + " " + strings.Repeat(fmt.Sprintf("Section %d notes. ", i+1), 20),
		})
		c.Questions = append(c.Questions, Question{Asker: owner, Query: t.keywords, Expected: name})
	}
	return c
}

// Owned returns the names of the documents owned by user.
func (c *Corpus) Owned(user string) map[string]bool {
	out := make(map[string]bool)
	for _, d := range c.Documents {
		if d.Owner == user {
			out[d.Name] = true
		}
	}
	return out
}
