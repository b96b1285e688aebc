// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package explorerapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

const (
	routeParamHash    = "hash"
	routeParamHeight  = "height"
	routeParamTxID    = "txid"
	routeParamAddress = "address"
)

const (
	queryParamSkip  = "skip"
	queryParamLimit = "limit"
)

// apiError is a handler failure carrying the HTTP status it should map
// to, the same shape daglabs-btcd's apiserver uses for its controllers.
type apiError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
}

func (e *apiError) Error() string { return e.Message }

func newAPIError(code int, format string, args ...interface{}) *apiError {
	return &apiError{Code: code, Message: fmt.Sprintf(format, args...)}
}

type routeHandler func(s *Server, routeParams map[string]string, r *http.Request) (interface{}, *apiError)

func makeHandler(s *Server, handler routeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, apiErr := handler(s, mux.Vars(r), r)
		if apiErr != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(apiErr.Code)
			json.NewEncoder(w).Encode(apiErr)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			log.Warnf("explorer API: encoding response: %v", err)
		}
	}
}

func addRoutes(router *mux.Router, s *Server) {
	router.HandleFunc("/stats", makeHandler(s, getStatsHandler)).Methods("GET")
	router.HandleFunc("/blocks", makeHandler(s, getBlocksHandler)).Methods("GET")
	router.HandleFunc("/blocks/height/{"+routeParamHeight+"}", makeHandler(s, getBlockByHeightHandler)).Methods("GET")
	router.HandleFunc("/blocks/{"+routeParamHash+"}", makeHandler(s, getBlockByHashHandler)).Methods("GET")
	router.HandleFunc("/transactions/{"+routeParamTxID+"}", makeHandler(s, getTransactionHandler)).Methods("GET")
	router.HandleFunc("/address/{"+routeParamAddress+"}", makeHandler(s, getAddressHandler)).Methods("GET")
}
