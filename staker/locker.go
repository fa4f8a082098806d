package staker

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Anchor instruction discriminators of the locked-voter program
var (
	newEscrowDiscriminator            = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "new_escrow")
	increaseLockedAmountDiscriminator = bin.SighashTypeID(bin.SIGHASH_GLOBAL_NAMESPACE, "increase_locked_amount")
)

// NewEscrowInstruction creates the escrow record for owner, funded by payer
func NewEscrowInstruction(network Network, escrow, owner, payer solana.PublicKey) (solana.Instruction, error) {
	data, err := encodeLockerArgs(newEscrowDiscriminator)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(
		network.LockerProgram,
		solana.AccountMetaSlice{
			solana.Meta(network.Locker),
			solana.Meta(escrow).WRITE(),
			solana.Meta(owner),
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(solana.SystemProgramID),
		},
		data,
	), nil
}

// IncreaseLockedAmountInstruction moves amount from the owner's token account into the escrow
func IncreaseLockedAmountInstruction(network Network, state EscrowState, amount uint64) (solana.Instruction, error) {
	data, err := encodeLockerArgs(increaseLockedAmountDiscriminator, amount)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(
		network.LockerProgram,
		solana.AccountMetaSlice{
			solana.Meta(network.Locker).WRITE(),
			solana.Meta(state.Escrow).WRITE(),
			solana.Meta(state.EscrowTokens).WRITE(),
			solana.Meta(state.Owner).SIGNER(),
			solana.Meta(state.SourceTokens).WRITE(),
			solana.Meta(solana.TokenProgramID),
		},
		data,
	), nil
}

// encodeLockerArgs writes the discriminator followed by Borsh u64 arguments
func encodeLockerArgs(discriminator bin.TypeID, args ...uint64) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteBytes(discriminator[:], false); err != nil {
		return nil, fmt.Errorf("encoding discriminator: %w", err)
	}
	for _, arg := range args {
		if err := enc.WriteUint64(arg, bin.LE); err != nil {
			return nil, fmt.Errorf("encoding argument: %w", err)
		}
	}
	return buf.Bytes(), nil
}
