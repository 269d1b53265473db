package frontend

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// The document types mirror #Context in schema.cue. They are decoded from
// the unified CUE value, so defaults are already filled. Decode honours the
// json tags and widthDoc's UnmarshalJSON.

type contextDoc struct {
	Types []componentDoc `json:"types"`
}

type locationDoc struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

type componentDoc struct {
	Name      string        `json:"name"`
	External  bool          `json:"external"`
	Source    *locationDoc  `json:"source"`
	Fields    []fieldDoc    `json:"fields"`
	Functions []functionDoc `json:"functions"`
	Bindings  []bindingDoc  `json:"bindings"`
}

type fieldDoc struct {
	Name    string         `json:"name"`
	Kind    string         `json:"kind"`
	Type    *typeDoc       `json:"type"`
	Default int64          `json:"default"`
	Params  []paramBindDoc `json:"params"`
	Source  *locationDoc   `json:"source"`
}

type paramBindDoc struct {
	Name  string   `json:"name"`
	Value widthDoc `json:"value"`
}

// widthDoc is a width given either as a number or as an expression string.
type widthDoc struct {
	Expr string
}

func (w *widthDoc) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
			return fmt.Errorf("width %s is not an integer", n)
		}
		w.Expr = n.String()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("width must be an integer or an expression string")
	}
	w.Expr = s
	return nil
}

type typeDoc struct {
	Logic *struct {
		Width  widthDoc `json:"width"`
		Signed bool     `json:"signed"`
	} `json:"logic"`
	Bundle   *bundleDoc   `json:"bundle"`
	Ref      string       `json:"ref"`
	Protocol *protocolDoc `json:"protocol"`
}

type bundleDoc struct {
	Name   string `json:"name"`
	Consts []struct {
		Name    string `json:"name"`
		Default int64  `json:"default"`
	} `json:"consts"`
	Fields []bundleFieldDoc `json:"fields"`
}

type bundleFieldDoc struct {
	Name string  `json:"name"`
	Dir  string  `json:"dir"`
	Type typeDoc `json:"type"`
}

type protocolDoc struct {
	Name    string      `json:"name"`
	Methods []methodDoc `json:"methods"`
}

type methodDoc struct {
	Name   string   `json:"name"`
	Params []varDoc `json:"params"`
	Result *typeDoc `json:"result"`
}

type varDoc struct {
	Name string  `json:"name"`
	Type typeDoc `json:"type"`
}

type functionDoc struct {
	Name   string       `json:"name"`
	Kind   string       `json:"kind"`
	Clock  string       `json:"clock"`
	Reset  string       `json:"reset"`
	Params []varDoc     `json:"params"`
	Locals []varDoc     `json:"locals"`
	Result *typeDoc     `json:"result"`
	Body   []stmtDoc    `json:"body"`
	Source *locationDoc `json:"source"`
}

type bindingDoc struct {
	Target string       `json:"target"`
	Source string       `json:"source"`
	Pos    *locationDoc `json:"pos"`
}

type stmtDoc struct {
	Assign *struct {
		Targets []string `json:"targets"`
		Value   string   `json:"value"`
	} `json:"assign"`
	Aug *struct {
		Target string `json:"target"`
		Op     string `json:"op"`
		Value  string `json:"value"`
	} `json:"aug"`
	If *struct {
		Cond string    `json:"cond"`
		Then []stmtDoc `json:"then"`
		Else []stmtDoc `json:"else"`
	} `json:"if"`
	Match *struct {
		Subject string `json:"subject"`
		Cases   []struct {
			Labels []string  `json:"labels"`
			Body   []stmtDoc `json:"body"`
		} `json:"cases"`
	} `json:"match"`
	For *struct {
		Var   string    `json:"var"`
		Start string    `json:"start"`
		Stop  string    `json:"stop"`
		Step  int64     `json:"step"`
		Body  []stmtDoc `json:"body"`
	} `json:"for"`
	While *struct {
		Cond string    `json:"cond"`
		Body []stmtDoc `json:"body"`
	} `json:"while"`
	Wait *struct {
		Edge   string `json:"edge"`
		Signal string `json:"signal"`
	} `json:"wait"`
	Delay *struct {
		Amount int64  `json:"amount"`
		Unit   string `json:"unit"`
	} `json:"delay"`
	Return *struct {
		Value string `json:"value"`
	} `json:"return"`
}
