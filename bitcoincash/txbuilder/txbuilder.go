// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/bchwallet/bitcoincash"
	"github.com/BoostyLabs/bchwallet/bitcoincash/cashtoken"
	"github.com/BoostyLabs/bchwallet/bitcoincash/coinselect"
	"github.com/BoostyLabs/bchwallet/bitcoincash/fees"
	"github.com/BoostyLabs/bchwallet/bitcoincash/signer"
	"github.com/BoostyLabs/bchwallet/internal/numbers"
)

const (
	// txVersion defines transaction version for this builder.
	txVersion int32 = 2
	// txSequence defines sequence of every input.
	txSequence uint32 = 0

	// MaxP2PKHUnlockingSize defines the largest pay-to-public-key-hash unlocking script:
	// push (1), DER signature (72), hash type (1), push (1), compressed public key (33).
	MaxP2PKHUnlockingSize = 1 + 72 + 1 + 1 + 33
	// P2PKHSatisfactionWeight defines weight of the P2PKH unlocking script with its length prefix.
	P2PKHSatisfactionWeight = fees.Weight((1 + MaxP2PKHUnlockingSize) * fees.WitnessScaleFactor)
)

// TransferParams describes data needed to build transfer transaction.
type TransferParams struct {
	Path         string // derivation path of the key controlling every input.
	Destination  []byte // recipient locking bytecode.
	ChangeScript []byte // sender locking bytecode for change.
	Amount       uint64 // satoshi to transfer.
	UTXOs        bitcoincash.UnspentUTXOs
	// Required outputs are spent regardless of selection:
	// genesis output for token creation or token outputs for token transfer.
	Required *bitcoincash.UnspentUTXOs
	Token    *TokenOptions
}

// Result describes built transaction.
type Result struct {
	Tx     *wire.MsgTx
	RawTx  string // hex encoded serialized transaction.
	Dust   uint64 // dust threshold of the destination output.
	Fee    uint64 // inputs value minus outputs value.
	Change bool   // whether transaction returns change to the sender.
}

// Config describes TxBuilder settings.
type Config struct {
	Selector     coinselect.Selector
	FeeRate      fees.FeeRate // rate inputs and change are priced with during selection.
	RelayFeeRate fees.FeeRate // rate applied to the measured transaction size.
}

// TxBuilder provides transaction building related logic.
type TxBuilder struct {
	signer       *signer.Signer
	selector     coinselect.Selector
	feeRate      fees.FeeRate
	relayFeeRate fees.FeeRate
}

// NewTxBuilder is a constructor for TxBuilder.
func NewTxBuilder(txSigner *signer.Signer, config Config) *TxBuilder {
	return &TxBuilder{
		signer:       txSigner,
		selector:     config.Selector,
		feeRate:      config.FeeRate,
		relayFeeRate: config.RelayFeeRate,
	}
}

// BuildTransferTx constructs signed transfer transaction.
//
//	outputs:
//	┌─────────┬──────────────┬────────────────────────────────────────┐
//	│  index  │     type     │             description                │
//	├=========┼==============┼========================================┤
//	│       0 │ destination  │ mandatory, transfer amount and tokens. │
//	│         │              │ absorbs the excess if there is no      │
//	│         │              │ change.                                │
//	├─────────┼──────────────┼────────────────────────────────────────┤
//	│       1 │ change       │ optional, mandatory if tokens return   │
//	│         │              │ to sender.                             │
//	└─────────┴──────────────┴────────────────────────────────────────┘
//
// Inputs start with required outputs followed by the selected ones.
// Sending the whole non-token balance spends every non-token output and pays the fee from the destination.
func (b *TxBuilder) BuildTransferTx(params TransferParams) (*Result, error) {
	if len(params.Destination) == 0 || len(params.ChangeScript) == 0 {
		return nil, errors.New("destination and change scripts are required")
	}

	plan, err := newTokenPlan(params.Token, params.Required)
	if err != nil {
		return nil, err
	}

	destinationScript, err := cashtoken.JoinScript(plan.destination, params.Destination)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	changeScript, err := cashtoken.JoinScript(plan.change, params.ChangeScript)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	destination := wire.NewTxOut(numbers.MustSigned(params.Amount), destinationScript)
	dust := coinselect.DustThreshold(destination)
	if params.Amount < dust {
		return nil, NewDustError(params.Amount, dust)
	}

	if len(plan.required) == 0 && params.UTXOs.NonTokenAmount() == params.Amount {
		return b.buildSweep(params.Path, params.UTXOs.NonToken, destination, dust)
	}

	var (
		change      = wire.NewTxOut(0, changeScript)
		changeDust  = coinselect.DustThreshold(change)
		changeFloor uint64
		target      = params.Amount
	)
	if plan.change != nil {
		changeFloor = changeDust
		var ok bool
		if target, ok = numbers.AddUint64(target, changeFloor); !ok {
			return nil, fmt.Errorf("amount %d overflows", params.Amount)
		}
	}

	selection, err := b.selector.Select(
		coinselect.NewWeightedUTXOs(plan.required, P2PKHSatisfactionWeight),
		coinselect.NewWeightedUTXOs(excludeOutPoints(params.UTXOs.NonToken, plan.required), P2PKHSatisfactionWeight),
		b.feeRate, target, change,
	)
	if err != nil {
		return nil, err
	}
	if len(selection.Selected) == 0 {
		return nil, ErrNoInputs
	}

	// input and change fees reserved by the selection are covered by the measured relay fee,
	// so the whole amount above the target is left to distribute.
	var (
		excess     = numbers.MustUnsigned(numbers.MustSigned(selection.SelectedAmount()) - numbers.MustSigned(target))
		wantChange = plan.change != nil
	)
	if _, ok := selection.Excess.(coinselect.Change); ok {
		wantChange = true
	}

	log.Debugf("selected %d inputs for %d sat: excess %d, input fees %d", len(selection.Selected), target, excess, selection.FeeAmount)

	if wantChange {
		outputs := []*wire.TxOut{destination, change}
		relayFee, err := b.relayFee(selection.Selected, outputs)
		if err != nil {
			return nil, err
		}

		changeValue := changeFloor + excess
		if changeValue >= relayFee && changeValue-relayFee >= changeDust {
			change.Value = numbers.MustSigned(changeValue - relayFee)
			return b.finish(params.Path, selection.Selected, outputs, dust)
		}
		if plan.change != nil {
			change.Value = numbers.MustSigned(changeFloor)
			if err = deductFee(destination, excess, relayFee, dust); err != nil {
				return nil, err
			}

			return b.finish(params.Path, selection.Selected, outputs, dust)
		}
	}

	outputs := []*wire.TxOut{destination}
	relayFee, err := b.relayFee(selection.Selected, outputs)
	if err != nil {
		return nil, err
	}
	if err = deductFee(destination, excess, relayFee, dust); err != nil {
		return nil, err
	}

	return b.finish(params.Path, selection.Selected, outputs, dust)
}

// BuildP2PKH assembles transaction spending selected outputs and signs every input with the key at path.
func (b *TxBuilder) BuildP2PKH(path string, selected []bitcoincash.UTXO, outputs []*wire.TxOut) (*wire.MsgTx, error) {
	tx, prevOuts, err := newUnsignedTx(selected, outputs)
	if err != nil {
		return nil, err
	}

	err = b.signer.SignP2PKH(signer.SignParams{
		Tx:       tx,
		PrevOuts: prevOuts,
		Path:     path,
	})
	if err != nil {
		return nil, err
	}

	return tx, nil
}

// EstimateSize returns serialized size of the transaction with every input carrying
// the largest P2PKH unlocking script. Signed transaction is never larger.
func EstimateSize(tx *wire.MsgTx) int {
	size := tx.SerializeSize()
	for _, in := range tx.TxIn {
		size += MaxP2PKHUnlockingSize - len(in.SignatureScript)
	}

	return size
}

// buildSweep spends every output paying the relay fee from the destination.
func (b *TxBuilder) buildSweep(path string, utxos []bitcoincash.UTXO, destination *wire.TxOut, dust uint64) (*Result, error) {
	outputs := []*wire.TxOut{destination}
	relayFee, err := b.relayFee(utxos, outputs)
	if err != nil {
		return nil, err
	}
	if err = deductFee(destination, 0, relayFee, dust); err != nil {
		return nil, err
	}

	log.Debugf("sweeping %d inputs, relay fee %d", len(utxos), relayFee)

	return b.finish(path, utxos, outputs, dust)
}

// relayFee measures the transaction with the outputs and returns its relay fee.
func (b *TxBuilder) relayFee(selected []bitcoincash.UTXO, outputs []*wire.TxOut) (uint64, error) {
	tx, _, err := newUnsignedTx(selected, outputs)
	if err != nil {
		return 0, err
	}

	return b.relayFeeRate.FeeVBytes(uint64(EstimateSize(tx))), nil
}

// finish signs the transaction and describes it.
func (b *TxBuilder) finish(path string, selected []bitcoincash.UTXO, outputs []*wire.TxOut, dust uint64) (*Result, error) {
	tx, err := b.BuildP2PKH(path, selected, outputs)
	if err != nil {
		return nil, err
	}

	var in, out uint64
	for _, utxo := range selected {
		in += utxo.Value
	}
	for _, txOut := range tx.TxOut {
		out += numbers.MustUnsigned(txOut.Value)
	}

	w := bytes.NewBuffer(make([]byte, 0, tx.SerializeSize()))
	if err = tx.Serialize(w); err != nil {
		return nil, err
	}

	log.Infof("built %v: %d inputs, %d outputs, %d bytes, fee %d", tx.TxHash(), len(tx.TxIn), len(tx.TxOut), w.Len(), in-out)

	return &Result{
		Tx:     tx,
		RawTx:  hex.EncodeToString(w.Bytes()),
		Dust:   dust,
		Fee:    numbers.MustUnsigned(numbers.MustSigned(in) - numbers.MustSigned(out)),
		Change: len(tx.TxOut) > 1,
	}, nil
}

// deductFee adds excess to the output value and subtracts fee from it.
func deductFee(out *wire.TxOut, excess, fee, dust uint64) error {
	value := numbers.MustUnsigned(out.Value) + excess
	if value < fee || value-fee < dust {
		return NewDustError(numbers.SaturatingSub(value, fee), dust)
	}

	out.Value = numbers.MustSigned(value - fee)

	return nil
}

// newUnsignedTx returns transaction with empty unlocking scripts and outputs spent by its inputs.
func newUnsignedTx(selected []bitcoincash.UTXO, outputs []*wire.TxOut) (*wire.MsgTx, []*wire.TxOut, error) {
	if len(selected) == 0 {
		return nil, nil, ErrNoInputs
	}

	tx := wire.NewMsgTx(txVersion)
	prevOuts := make([]*wire.TxOut, 0, len(selected))
	for i := range selected {
		prevOut, err := selected[i].TxOut()
		if err != nil {
			return nil, nil, fmt.Errorf("input %v: %w", selected[i].OutPoint, err)
		}

		in := wire.NewTxIn(&selected[i].OutPoint, nil, nil)
		in.Sequence = txSequence
		tx.AddTxIn(in)
		prevOuts = append(prevOuts, prevOut)
	}
	for _, out := range outputs {
		tx.AddTxOut(out)
	}

	return tx, prevOuts, nil
}

// excludeOutPoints returns outputs which are not in the excluded list.
func excludeOutPoints(utxos, excluded []bitcoincash.UTXO) []bitcoincash.UTXO {
	if len(excluded) == 0 {
		return utxos
	}

	skip := make(map[wire.OutPoint]struct{}, len(excluded))
	for _, utxo := range excluded {
		skip[utxo.OutPoint] = struct{}{}
	}

	result := make([]bitcoincash.UTXO, 0, len(utxos))
	for _, utxo := range utxos {
		if _, ok := skip[utxo.OutPoint]; !ok {
			result = append(result, utxo)
		}
	}

	return result
}
