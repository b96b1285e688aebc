// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package explorerapi

import (
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/0xnohan/Kernel/chainhash"
	"github.com/0xnohan/Kernel/chainutil"
	"github.com/0xnohan/Kernel/txscript"
)

const defaultBlockListLimit = 25
const maxBlockListLimit = 100

type statsResponse struct {
	Height        int64  `json:"height"`
	TipHash       string `json:"tip_hash"`
	Bits          string `json:"bits"`
	MempoolCount  int    `json:"mempool_count"`
	NextSubsidy   int64  `json:"next_subsidy"`
}

func getStatsHandler(s *Server, _ map[string]string, _ *http.Request) (interface{}, *apiError) {
	tipHash, height := s.cfg.Chain.Tip()
	mempoolCount := 0
	if s.cfg.Pool != nil {
		mempoolCount = s.cfg.Pool.Count()
	}
	return statsResponse{
		Height:       height,
		TipHash:      tipHash.String(),
		Bits:         strconv.FormatUint(uint64(s.cfg.Chain.NextRequiredBits()), 16),
		MempoolCount: mempoolCount,
		NextSubsidy:  s.cfg.Chain.NextSubsidy(),
	}, nil
}

type blockSummary struct {
	Hash      string `json:"hash"`
	Height    int64  `json:"height"`
	Timestamp int64  `json:"timestamp"`
	NumTx     int    `json:"num_tx"`
}

func getBlocksHandler(s *Server, _ map[string]string, r *http.Request) (interface{}, *apiError) {
	skip, limit, apiErr := parsePagination(r, defaultBlockListLimit, maxBlockListLimit)
	if apiErr != nil {
		return nil, apiErr
	}

	_, tip := s.cfg.Chain.Tip()
	summaries := make([]blockSummary, 0, limit)
	for height := tip - int64(skip); height >= 0 && len(summaries) < limit; height-- {
		hash, ok := s.cfg.Chain.BlockHashAtHeight(height)
		if !ok {
			break
		}
		block, err := s.cfg.Chain.BlockByHash(hash)
		if err != nil {
			return nil, newAPIError(http.StatusInternalServerError, "loading block at height %d: %v", height, err)
		}
		summaries = append(summaries, blockSummary{
			Hash:      hash.String(),
			Height:    height,
			Timestamp: block.Header.Timestamp.Unix(),
			NumTx:     len(block.Transactions),
		})
	}
	return summaries, nil
}

type blockDetail struct {
	Hash         string   `json:"hash"`
	Height       int64    `json:"height"`
	Version      uint32   `json:"version"`
	PrevBlock    string   `json:"prev_block"`
	MerkleRoot   string   `json:"merkle_root"`
	Timestamp    int64    `json:"timestamp"`
	Bits         string   `json:"bits"`
	Nonce        uint32   `json:"nonce"`
	Transactions []string `json:"transactions"`
}

func blockDetailFor(s *Server, hash chainhash.Hash) (interface{}, *apiError) {
	block, err := s.cfg.Chain.BlockByHash(hash)
	if err != nil {
		return nil, newAPIError(http.StatusNotFound, "block %s not found: %v", hash, err)
	}
	height, _ := s.cfg.Chain.BlockHeight(hash)

	txIDs := make([]string, len(block.Transactions))
	for i, tx := range block.Transactions {
		txIDs[i] = tx.TxHash().String()
	}
	return blockDetail{
		Hash:         hash.String(),
		Height:       height,
		Version:      block.Header.Version,
		PrevBlock:    block.Header.PrevBlock.String(),
		MerkleRoot:   block.Header.MerkleRoot.String(),
		Timestamp:    block.Header.Timestamp.Unix(),
		Bits:         strconv.FormatUint(uint64(block.Header.Bits), 16),
		Nonce:        block.Header.Nonce,
		Transactions: txIDs,
	}, nil
}

func getBlockByHashHandler(s *Server, routeParams map[string]string, _ *http.Request) (interface{}, *apiError) {
	hash, err := chainhash.NewHashFromStr(routeParams[routeParamHash])
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, "invalid block hash: %v", err)
	}
	return blockDetailFor(s, *hash)
}

func getBlockByHeightHandler(s *Server, routeParams map[string]string, _ *http.Request) (interface{}, *apiError) {
	height, err := strconv.ParseInt(routeParams[routeParamHeight], 10, 64)
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, "invalid height: %v", err)
	}
	hash, ok := s.cfg.Chain.BlockHashAtHeight(height)
	if !ok {
		return nil, newAPIError(http.StatusNotFound, "no block at height %d", height)
	}
	return blockDetailFor(s, hash)
}

type txOutDetail struct {
	Value    int64  `json:"value"`
	PkScript string `json:"pk_script_hex"`
	Address  string `json:"address,omitempty"`
}

type txInDetail struct {
	PrevTxHash  string `json:"prev_tx_hash"`
	PrevTxIndex uint32 `json:"prev_tx_index"`
}

type txDetail struct {
	TxID        string        `json:"txid"`
	BlockHash   string        `json:"block_hash"`
	IsCoinbase  bool          `json:"is_coinbase"`
	Inputs      []txInDetail  `json:"inputs"`
	Outputs     []txOutDetail `json:"outputs"`
}

func getTransactionHandler(s *Server, routeParams map[string]string, _ *http.Request) (interface{}, *apiError) {
	txHash, err := chainhash.NewHashFromStr(routeParams[routeParamTxID])
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, "invalid transaction id: %v", err)
	}

	loc, err := s.cfg.Store.GetTxLocation(*txHash)
	if err != nil {
		return nil, newAPIError(http.StatusNotFound, "transaction %s not found: %v", txHash, err)
	}
	block, err := s.cfg.Chain.BlockByHash(loc.BlockHash)
	if err != nil {
		return nil, newAPIError(http.StatusInternalServerError, "loading containing block: %v", err)
	}
	if int(loc.Index) >= len(block.Transactions) {
		return nil, newAPIError(http.StatusInternalServerError, "tx index %d out of range for block %s", loc.Index, loc.BlockHash)
	}
	tx := block.Transactions[loc.Index]

	inputs := make([]txInDetail, len(tx.TxIn))
	for i, in := range tx.TxIn {
		inputs[i] = txInDetail{
			PrevTxHash:  in.PreviousOutPoint.Hash.String(),
			PrevTxIndex: in.PreviousOutPoint.Index,
		}
	}
	outputs := make([]txOutDetail, len(tx.TxOut))
	for i, out := range tx.TxOut {
		outputs[i] = txOutDetail{Value: out.Value, PkScript: hex.EncodeToString(out.PkScript)}
		if pkHash, ok := txscript.ExtractPubKeyHash(out.PkScript); ok {
			if addr, err := chainutil.NewAddressPubKeyHash(pkHash); err == nil {
				outputs[i].Address = addr.String()
			}
		}
	}

	return txDetail{
		TxID:       txHash.String(),
		BlockHash:  loc.BlockHash.String(),
		IsCoinbase: tx.IsCoinBase(),
		Inputs:     inputs,
		Outputs:    outputs,
	}, nil
}

type addressResponse struct {
	Address string         `json:"address"`
	Balance int64          `json:"balance"`
	UTXOs   []addressUTXO  `json:"utxos"`
}

type addressUTXO struct {
	TxID  string `json:"txid"`
	Index uint32 `json:"index"`
	Value int64  `json:"value"`
}

// getAddressHandler returns an address's current confirmed balance and
// its spendable outputs. §6 asks for a "transaction list" too; this repo
// has no historical address index (only the current UTXO set is indexed
// by script), so the output list doubles as the best available
// transaction history: each entry names the funding transaction, but a
// spent (and not re-funded) output drops out of it entirely.
func getAddressHandler(s *Server, routeParams map[string]string, _ *http.Request) (interface{}, *apiError) {
	addr, err := chainutil.DecodeAddress(routeParams[routeParamAddress])
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, "invalid address: %v", err)
	}

	entries, err := s.cfg.Utxo.EntriesForPkHash(*addr.Hash160())
	if err != nil {
		return nil, newAPIError(http.StatusInternalServerError, "scanning UTXO set: %v", err)
	}

	resp := addressResponse{Address: addr.String(), UTXOs: make([]addressUTXO, 0, len(entries))}
	for _, e := range entries {
		resp.Balance += e.Value
		resp.UTXOs = append(resp.UTXOs, addressUTXO{
			TxID:  e.Outpoint.Hash.String(),
			Index: e.Outpoint.Index,
			Value: e.Value,
		})
	}
	return resp, nil
}

func parsePagination(r *http.Request, defaultLimit, maxLimit int) (skip, limit int, apiErr *apiError) {
	limit = defaultLimit
	q := r.URL.Query()

	if v := q.Get(queryParamSkip); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return 0, 0, newAPIError(http.StatusUnprocessableEntity, "invalid %s query parameter", queryParamSkip)
		}
		skip = parsed
	}
	if v := q.Get(queryParamLimit); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return 0, 0, newAPIError(http.StatusUnprocessableEntity, "invalid %s query parameter", queryParamLimit)
		}
		limit = parsed
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit, nil
}
