package auth

import (
	"math/big"

	"github.com/orangelab-kr/backoffice-api/internal/db/models"
)

// BitmaskWidth is the fixed width of the permission bitmask. Every
// service can assign at most this many token permission indices.
const BitmaskWidth = 128

// EncodePermissions compresses a permission set into a base-36 rendered
// 128 bit mask. Permissions without an index are skipped; index i sets
// bit 127-i, so the resulting value is sum(2^(127-i)) over all indices.
// An empty set encodes as "0".
func EncodePermissions(permissions []models.Permission) (string, error) {
	mask := new(big.Int)

	for i := range permissions {
		if permissions[i].Index == nil {
			continue
		}

		index := *permissions[i].Index
		if index < 0 || index >= BitmaskWidth {
			return "", ErrInvalidPermissionIndex
		}

		mask.SetBit(mask, BitmaskWidth-1-index, 1)
	}

	return mask.Text(36), nil
}

// DecodePermissionMask is the inverse of EncodePermissions: it parses a
// base-36 mask and returns the sorted permission indices whose bits are
// set. Verifiers combine the result with the service's index assignment
// to recover the permission set.
func DecodePermissionMask(encoded string) ([]int, error) {
	mask, ok := new(big.Int).SetString(encoded, 36)
	if !ok || mask.Sign() < 0 || mask.BitLen() > BitmaskWidth {
		return nil, ErrInvalidPermissionMask
	}

	var indices []int

	for index := 0; index < BitmaskWidth; index++ {
		if mask.Bit(BitmaskWidth-1-index) == 1 {
			indices = append(indices, index)
		}
	}

	return indices, nil
}
