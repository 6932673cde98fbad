package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/optiondesk/internal/contracts"
	"github.com/wonny/optiondesk/internal/s0_symbol"
)

// DecodeResponse is a decoded contract identifier
type DecodeResponse struct {
	Identifier string               `json:"identifier"`
	Root       string               `json:"root"`
	Expiration string               `json:"expiration"`
	Strike     string               `json:"strike"`
	Type       contracts.OptionType `json:"type"`
}

// DecodeSymbol decodes a contract identifier
// GET /api/symbols/{identifier}/decode
func DecodeSymbol(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	decoded, err := s0_symbol.Decode(identifier)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondData(w, DecodeResponse{
		Identifier: identifier,
		Root:       s0_symbol.Root(identifier),
		Expiration: decoded.Expiration.Format("2006-01-02"),
		Strike:     decoded.Strike.String(),
		Type:       decoded.Type,
	})
}
