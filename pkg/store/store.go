// Package store persists an orgchart.Chart's Snapshot to a bbolt
// database, so a standalone host survives a restart without replaying
// every grant/revoke/add/remove from genesis. Each authoritative map
// named in spec §6's persisted state layout gets its own bucket.
package store

import (
	"encoding/binary"
	"fmt"

	"github.com/abc-research-at/corgi/pkg/ocrypto"
	"github.com/abc-research-at/corgi/pkg/orgchart"
	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"
)

var (
	bucketRoleIDToFlag      = []byte("role_id_to_flag")
	bucketFlagToRoleID      = []byte("flag_to_role_id")
	bucketStructureMask     = []byte("structure_mask")
	bucketDirectJuniorMask  = []byte("direct_junior_mask")
	bucketAssignmentCount   = []byte("assignment_count")
	bucketUserRoles         = []byte("user_roles")
	bucketRuleToActiveFlags = []byte("rule_to_active_flags")
	bucketMeta              = []byte("meta")

	keyActiveRoleFlags = []byte("active_role_flags")
	keyFreeRoleFlags   = []byte("free_role_flags")
	keyRoleIndex       = []byte("role_index")
)

var allBuckets = [][]byte{
	bucketRoleIDToFlag,
	bucketFlagToRoleID,
	bucketStructureMask,
	bucketDirectJuniorMask,
	bucketAssignmentCount,
	bucketUserRoles,
	bucketRuleToActiveFlags,
	bucketMeta,
}

// Open opens (creating if necessary) the bbolt database at path.
func Open(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	return db, nil
}

// Save overwrites db's contents with snap.
func Save(db *bbolt.DB, snap orgchart.Snapshot) error {
	return db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
		}

		roleIDToFlag, err := tx.CreateBucket(bucketRoleIDToFlag)
		if err != nil {
			return err
		}
		for roleID, flag := range snap.RoleIDToFlag {
			if err := roleIDToFlag.Put(word(&roleID), word(&flag)); err != nil {
				return err
			}
		}

		flagToRoleID, err := tx.CreateBucket(bucketFlagToRoleID)
		if err != nil {
			return err
		}
		for flag, roleID := range snap.FlagToRoleID {
			if err := flagToRoleID.Put(word(&flag), word(&roleID)); err != nil {
				return err
			}
		}

		structureMask, err := tx.CreateBucket(bucketStructureMask)
		if err != nil {
			return err
		}
		for flag, mask := range snap.StructureMask {
			if err := structureMask.Put(word(&flag), word(mask)); err != nil {
				return err
			}
		}

		directJuniorMask, err := tx.CreateBucket(bucketDirectJuniorMask)
		if err != nil {
			return err
		}
		for flag, mask := range snap.DirectJuniorMask {
			if err := directJuniorMask.Put(word(&flag), word(mask)); err != nil {
				return err
			}
		}

		assignmentCount, err := tx.CreateBucket(bucketAssignmentCount)
		if err != nil {
			return err
		}
		for roleID, count := range snap.AssignmentCount {
			var v [8]byte
			binary.BigEndian.PutUint64(v[:], uint64(count))
			if err := assignmentCount.Put(word(&roleID), v[:]); err != nil {
				return err
			}
		}

		userRoles, err := tx.CreateBucket(bucketUserRoles)
		if err != nil {
			return err
		}
		for user, roles := range snap.UserRoles {
			if err := userRoles.Put(user.Bytes(), word(roles)); err != nil {
				return err
			}
		}

		ruleToActiveFlags, err := tx.CreateBucket(bucketRuleToActiveFlags)
		if err != nil {
			return err
		}
		for ruleHash, flags := range snap.RuleToActiveFlags {
			if err := ruleToActiveFlags.Put(ruleHash.Bytes(), word(flags)); err != nil {
				return err
			}
		}

		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		if err := meta.Put(keyActiveRoleFlags, word(snap.ActiveRoleFlags)); err != nil {
			return err
		}
		if err := meta.Put(keyFreeRoleFlags, word(snap.FreeRoleFlags)); err != nil {
			return err
		}
		roleIndexBytes := make([]byte, 32*len(snap.RoleIndex))
		for i, flag := range snap.RoleIndex {
			copy(roleIndexBytes[i*32:(i+1)*32], word(&flag))
		}
		return meta.Put(keyRoleIndex, roleIndexBytes)
	})
}

// Load reads back a Snapshot previously written by Save. An empty
// database (no buckets yet) yields a Snapshot with empty maps, an
// empty role index, zero active and free flag masks, and a nil error.
func Load(db *bbolt.DB) (orgchart.Snapshot, error) {
	snap := orgchart.Snapshot{
		RoleIDToFlag:      make(map[orgchart.RoleID]orgchart.Flag),
		FlagToRoleID:      make(map[orgchart.Flag]orgchart.RoleID),
		StructureMask:     make(map[orgchart.Flag]*uint256.Int),
		DirectJuniorMask:  make(map[orgchart.Flag]*uint256.Int),
		AssignmentCount:   make(map[orgchart.RoleID]int),
		UserRoles:         make(map[ocrypto.Address]*uint256.Int),
		RuleToActiveFlags: make(map[ocrypto.Hash]*uint256.Int),
		ActiveRoleFlags:   new(uint256.Int),
		FreeRoleFlags:     new(uint256.Int),
	}

	err := db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketRoleIDToFlag); b != nil {
			if err := b.ForEach(func(k, v []byte) error {
				snap.RoleIDToFlag[unword(k)] = unword(v)
				return nil
			}); err != nil {
				return err
			}
		}
		if b := tx.Bucket(bucketFlagToRoleID); b != nil {
			if err := b.ForEach(func(k, v []byte) error {
				snap.FlagToRoleID[unword(k)] = unword(v)
				return nil
			}); err != nil {
				return err
			}
		}
		if b := tx.Bucket(bucketStructureMask); b != nil {
			if err := b.ForEach(func(k, v []byte) error {
				flag := unword(k)
				snap.StructureMask[flag] = unwordPtr(v)
				return nil
			}); err != nil {
				return err
			}
		}
		if b := tx.Bucket(bucketDirectJuniorMask); b != nil {
			if err := b.ForEach(func(k, v []byte) error {
				flag := unword(k)
				snap.DirectJuniorMask[flag] = unwordPtr(v)
				return nil
			}); err != nil {
				return err
			}
		}
		if b := tx.Bucket(bucketAssignmentCount); b != nil {
			if err := b.ForEach(func(k, v []byte) error {
				roleID := unword(k)
				snap.AssignmentCount[roleID] = int(binary.BigEndian.Uint64(v))
				return nil
			}); err != nil {
				return err
			}
		}
		if b := tx.Bucket(bucketUserRoles); b != nil {
			if err := b.ForEach(func(k, v []byte) error {
				var addr ocrypto.Address
				copy(addr[:], k)
				snap.UserRoles[addr] = unwordPtr(v)
				return nil
			}); err != nil {
				return err
			}
		}
		if b := tx.Bucket(bucketRuleToActiveFlags); b != nil {
			if err := b.ForEach(func(k, v []byte) error {
				var h ocrypto.Hash
				copy(h[:], k)
				snap.RuleToActiveFlags[h] = unwordPtr(v)
				return nil
			}); err != nil {
				return err
			}
		}
		if b := tx.Bucket(bucketMeta); b != nil {
			if v := b.Get(keyActiveRoleFlags); v != nil {
				snap.ActiveRoleFlags = unwordPtr(v)
			}
			if v := b.Get(keyFreeRoleFlags); v != nil {
				snap.FreeRoleFlags = unwordPtr(v)
			}
			if v := b.Get(keyRoleIndex); v != nil {
				for i := 0; i+32 <= len(v); i += 32 {
					snap.RoleIndex = append(snap.RoleIndex, unword(v[i:i+32]))
				}
			}
		}
		return nil
	})
	if err != nil {
		return orgchart.Snapshot{}, fmt.Errorf("store: load: %w", err)
	}
	return snap, nil
}

func word(x *uint256.Int) []byte {
	b := x.Bytes32()
	return b[:]
}

func unword(b []byte) uint256.Int {
	var padded [32]byte
	copy(padded[32-len(b):], b)
	var u uint256.Int
	u.SetBytes32(padded[:])
	return u
}

func unwordPtr(b []byte) *uint256.Int {
	u := unword(b)
	return &u
}
