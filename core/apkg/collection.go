package apkg

import (
	"encoding/json"
	"strconv"

	"github.com/KNN-07/NotebookLM2Anki/core/notetype"
)

const defaultDeckID = 1

type modelField struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Font   string   `json:"font"`
	Media  []string `json:"media"`
	RTL    bool     `json:"rtl"`
	Size   int      `json:"size"`
	Sticky bool     `json:"sticky"`
}

type modelTemplate struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	QFmt  string `json:"qfmt"`
	AFmt  string `json:"afmt"`
	BQFmt string `json:"bqfmt"`
	BAFmt string `json:"bafmt"`
	DID   *int64 `json:"did"`
}

type model struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      int             `json:"type"`
	Mod       int64           `json:"mod"`
	USN       int             `json:"usn"`
	SortF     int             `json:"sortf"`
	DID       int64           `json:"did"`
	Tmpls     []modelTemplate `json:"tmpls"`
	Flds      []modelField    `json:"flds"`
	CSS       string          `json:"css"`
	LatexPre  string          `json:"latexPre"`
	LatexPost string          `json:"latexPost"`
	Req       [][]any         `json:"req"`
	Tags      []string        `json:"tags"`
	Vers      []any           `json:"vers"`
}

type deck struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Mod       int64  `json:"mod"`
	USN       int    `json:"usn"`
	Collapsed bool   `json:"collapsed"`
	Conf      int    `json:"conf"`
	Dyn       int    `json:"dyn"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	LrnToday  [2]int `json:"lrnToday"`
	TimeToday [2]int `json:"timeToday"`
}

const (
	latexPre = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n" +
		"\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	latexPost = "\\end{document}"
)

func newModel(s notetype.Schema, deckID, mod int64) model {
	flds := make([]modelField, 0, len(s.Fields))
	for i, name := range s.Fields {
		flds = append(flds, modelField{Name: name, Ord: i, Font: "Arial", Media: []string{}, Size: 20})
	}
	return model{
		ID:    strconv.FormatInt(s.ID, 10),
		Name:  s.Name,
		Mod:   mod,
		USN:   -1,
		DID:   deckID,
		Tmpls: []modelTemplate{{Name: s.Template.Name, QFmt: s.Template.Front, AFmt: s.Template.Back}},
		Flds:  flds,
		CSS:   s.CSS,
		// The first field alone is enough for a card to be generated.
		Req:       [][]any{{0, "all", []int{0}}},
		LatexPre:  latexPre,
		LatexPost: latexPost,
		Tags:      []string{},
		Vers:      []any{},
	}
}

func newDeck(id int64, name string, mod int64) deck {
	return deck{
		ID:        id,
		Name:      name,
		Mod:       mod,
		USN:       -1,
		Conf:      1,
		ExtendNew: 10,
		ExtendRev: 50,
	}
}

// colJSON holds the JSON columns of the single col row.
type colJSON struct {
	Conf   string
	Models string
	Decks  string
	DConf  string
}

func buildColJSON(deckID int64, deckName string, mod int64, schemas ...notetype.Schema) (colJSON, error) {
	models := make(map[string]model, len(schemas))
	for _, s := range schemas {
		m := newModel(s, deckID, mod)
		models[m.ID] = m
	}
	decks := map[string]deck{
		strconv.Itoa(defaultDeckID):   newDeck(defaultDeckID, "Default", mod),
		strconv.FormatInt(deckID, 10): newDeck(deckID, deckName, mod),
	}
	conf := map[string]any{
		"activeDecks":   []int{defaultDeckID},
		"addToCur":      true,
		"collapseTime":  1200,
		"curDeck":       defaultDeckID,
		"dueCounts":     true,
		"estTimes":      true,
		"newBury":       true,
		"newSpread":     0,
		"nextPos":       1,
		"sortBackwards": false,
		"sortType":      "noteFld",
		"timeLim":       0,
	}
	if len(schemas) > 0 {
		conf["curModel"] = strconv.FormatInt(schemas[0].ID, 10)
	}
	dconf := map[string]any{
		strconv.Itoa(defaultDeckID): map[string]any{
			"id":       defaultDeckID,
			"name":     "Default",
			"mod":      0,
			"usn":      0,
			"maxTaken": 60,
			"autoplay": true,
			"timer":    0,
			"replayq":  true,
			"dyn":      false,
			"new": map[string]any{
				"bury": true, "delays": []float64{1, 10}, "initialFactor": 2500,
				"ints": []int{1, 4, 7}, "order": 1, "perDay": 20, "separate": true,
			},
			"lapse": map[string]any{
				"delays": []float64{10}, "leechAction": 0, "leechFails": 8,
				"minInt": 1, "mult": 0,
			},
			"rev": map[string]any{
				"bury": true, "ease4": 1.3, "fuzz": 0.05, "ivlFct": 1,
				"maxIvl": 36500, "minSpace": 1, "perDay": 100,
			},
		},
	}

	var out colJSON
	for _, part := range []struct {
		dst *string
		v   any
	}{
		{&out.Conf, conf},
		{&out.Models, models},
		{&out.Decks, decks},
		{&out.DConf, dconf},
	} {
		b, err := json.Marshal(part.v)
		if err != nil {
			return colJSON{}, err
		}
		*part.dst = string(b)
	}
	return out, nil
}
