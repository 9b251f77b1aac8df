package common

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie session holding the dashboard selection.
const SessionName = "macrodash"

// Selection is the dataset, group and range a visitor last looked at.
type Selection struct {
	Dataset    string   `json:"dataset"`
	Group      string   `json:"group"`
	Indicators []string `json:"indicators"`
	From       string   `json:"from"`
	To         string   `json:"to"`
}

// LoadSelection reads the selection from the session. A missing or
// undecodable session yields an empty selection.
func LoadSelection(store sessions.Store, r *http.Request) Selection {
	var sel Selection
	session, err := store.Get(r, SessionName)
	if err != nil {
		return sel
	}
	sel.Dataset, _ = session.Values["dataset"].(string)
	sel.Group, _ = session.Values["group"].(string)
	sel.Indicators, _ = session.Values["indicators"].([]string)
	sel.From, _ = session.Values["from"].(string)
	sel.To, _ = session.Values["to"].(string)
	return sel
}

// SaveSelection stores sel in the session cookie.
func SaveSelection(store sessions.Store, w http.ResponseWriter, r *http.Request, sel Selection) error {
	session, _ := store.Get(r, SessionName)
	session.Values["dataset"] = sel.Dataset
	session.Values["group"] = sel.Group
	if len(sel.Indicators) > 0 {
		session.Values["indicators"] = sel.Indicators
	} else {
		delete(session.Values, "indicators")
	}
	session.Values["from"] = sel.From
	session.Values["to"] = sel.To
	return session.Save(r, w)
}
