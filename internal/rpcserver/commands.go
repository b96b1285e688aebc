// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpcserver

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/0xnohan/Kernel/chainutil"
	"github.com/0xnohan/Kernel/internal/blockchain"
	"github.com/0xnohan/Kernel/internal/mining"
	"github.com/0xnohan/Kernel/internal/walletcore"
	"github.com/0xnohan/Kernel/txscript"
	"github.com/0xnohan/Kernel/wire"
)

type commandFunc func(s *Server, params json.RawMessage) response

// commandTable is §6's recognized RPC command set.
var commandTable = map[string]commandFunc{
	"ping":             cmdPing,
	"create_wallet":    cmdCreateWallet,
	"get_wallets":      cmdGetWallets,
	"send_tx":          cmdSendTx,
	"get_work":         cmdGetWork,
	"submit_block":     cmdSubmitBlock,
	"get_chain_height": cmdGetChainHeight,
	"shutdown":         cmdShutdown,
}

func cmdPing(s *Server, _ json.RawMessage) response {
	return okResponse("pong")
}

type createWalletParams struct {
	Name string `json:"name"`
}

func cmdCreateWallet(s *Server, params json.RawMessage) response {
	var p createWalletParams
	if err := json.Unmarshal(params, &p); err != nil || p.Name == "" {
		return errorResponse("create_wallet: missing or invalid name")
	}

	w, err := walletcore.New(p.Name)
	if err != nil {
		return errorResponse("create_wallet: %v", err)
	}
	if err := w.Save(s.cfg.WalletDir); err != nil {
		return errorResponse("create_wallet: %v", err)
	}
	return okResponse(map[string]string{
		"name":    w.Name,
		"address": w.Address.String(),
	})
}

type walletBalance struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

func cmdGetWallets(s *Server, _ json.RawMessage) response {
	wallets, err := walletcore.LoadAll(s.cfg.WalletDir)
	if err != nil {
		return errorResponse("get_wallets: %v", err)
	}

	out := make([]walletBalance, 0, len(wallets))
	for _, w := range wallets {
		balance, err := w.Balance(s.cfg.Utxo)
		if err != nil {
			return errorResponse("get_wallets: computing balance for %q: %v", w.Name, err)
		}
		out = append(out, walletBalance{Name: w.Name, Address: w.Address.String(), Balance: balance})
	}
	return okResponse(out)
}

type sendTxParams struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  int64  `json:"amount"`
	FeeRate int64  `json:"fee_rate"`
}

func cmdSendTx(s *Server, params json.RawMessage) response {
	var p sendTxParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResponse("send_tx: malformed params: %v", err)
	}

	wallet, err := walletcore.Load(s.cfg.WalletDir, p.From)
	if err != nil {
		return errorResponse("send_tx: loading wallet %q: %v", p.From, err)
	}

	_, tipHeight := s.cfg.Chain.Tip()
	tx, err := walletcore.BuildSignedTransaction(walletcore.SendParams{
		From:    wallet,
		To:      p.To,
		Amount:  p.Amount,
		FeeRate: p.FeeRate,
	}, s.cfg.Utxo, s.cfg.Store, tipHeight, s.cfg.ChainParams.CoinbaseMaturity)
	if err != nil {
		return errorResponse("send_tx: %v", err)
	}

	if _, err := s.cfg.Pool.AddTransaction(tx, s.cfg.Chain.UTXOSource()); err != nil {
		return errorResponse("send_tx: mempool rejected transaction: %v", err)
	}

	txHash := tx.TxHash()
	if s.cfg.Sync != nil {
		s.cfg.Sync.AnnounceTx(txHash)
	}
	s.hub.notifyNewTx(txHash.String())

	return okResponse(map[string]string{"txid": txHash.String()})
}

type getWorkParams struct {
	PayoutAddress string `json:"payout_address"`
}

func cmdGetWork(s *Server, params json.RawMessage) response {
	var p getWorkParams
	_ = json.Unmarshal(params, &p)
	payoutAddrStr := p.PayoutAddress
	if payoutAddrStr == "" {
		payoutAddrStr = s.cfg.DefaultMiner
	}
	if payoutAddrStr == "" {
		return errorResponse("get_work: no payout_address given and no default miner address configured")
	}

	payoutAddr, err := chainutil.DecodeAddress(payoutAddrStr)
	if err != nil {
		return errorResponse("get_work: payout_address: %v", err)
	}
	payoutScript, err := txscript.PayToPubKeyHashScript(payoutAddr.Hash160()[:])
	if err != nil {
		return errorResponse("get_work: %v", err)
	}

	block, err := mining.NewBlockTemplate(s.cfg.Chain, s.cfg.Pool, payoutScript)
	if err != nil {
		return errorResponse("get_work: %v", err)
	}

	txs := make([]string, len(block.Transactions))
	for i, tx := range block.Transactions {
		txs[i] = hex.EncodeToString(tx.Serialize())
	}
	_, tipHeight := s.cfg.Chain.Tip()

	return okResponse(map[string]interface{}{
		"version":             block.Header.Version,
		"previous_block_hash": block.Header.PrevBlock.String(),
		"transactions":        txs,
		"bits":                fmt.Sprintf("%08x", block.Header.Bits),
		"height":              tipHeight + 1,
	})
}

type submitBlockParams struct {
	BlockHex string `json:"block_hex"`
}

func cmdSubmitBlock(s *Server, params json.RawMessage) response {
	var p submitBlockParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResponse("submit_block: malformed params: %v", err)
	}

	raw, err := hex.DecodeString(p.BlockHex)
	if err != nil {
		return errorResponse("submit_block: block_hex: %v", err)
	}
	block, err := wire.DeserializeBlock(raw)
	if err != nil {
		return errorResponse("submit_block: %v", err)
	}

	status, err := s.cfg.Chain.ProcessNewBlock(block)
	if err != nil {
		return okResponse(map[string]string{"result": "rejected", "reason": err.Error()})
	}

	hash := block.BlockHash()
	if status == blockchain.StatusAcceptedMainChain {
		s.cfg.Pool.RemoveConfirmed(block)
		if s.cfg.Sync != nil {
			s.cfg.Sync.AnnounceBlock(hash)
		}
		_, height := s.cfg.Chain.Tip()
		s.hub.notifyNewTip(hash.String(), height)
	}
	return okResponse(map[string]string{"result": "accepted", "status": statusLabel(status)})
}

func statusLabel(status blockchain.Status) string {
	switch status {
	case blockchain.StatusDuplicate:
		return "duplicate"
	case blockchain.StatusOrphan:
		return "orphan"
	case blockchain.StatusAcceptedFork:
		return "accepted_fork"
	case blockchain.StatusAcceptedMainChain:
		return "accepted_main_chain"
	default:
		return "unknown"
	}
}

func cmdGetChainHeight(s *Server, _ json.RawMessage) response {
	if s.cfg.Chain == nil {
		return okResponse(int64(-1))
	}
	_, height := s.cfg.Chain.Tip()
	return okResponse(height)
}

func cmdShutdown(s *Server, _ json.RawMessage) response {
	if s.cfg.RequestShutdown != nil {
		go s.cfg.RequestShutdown()
	}
	return okResponse("shutting down")
}
