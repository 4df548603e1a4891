// Package vaultdata defines the on-wire vault data model: individually
// encrypted records, labels and templates keyed by UUID, tombstones, the
// KDF configuration and the sentinel.
package vaultdata

import (
	"github.com/passnote/passnote/vaultcrypto"
)

// SentinelValue is the fixed plaintext encrypted under the current master
// key to verify it without touching user data. Its exact byte sequence is
// part of the on-disk format compatibility contract.
const SentinelValue = "passnote-sentinel-v1"

// Record is the encrypted on-wire form of a vault entry. The record's id
// is the key under which it lives in [Vault.Records].
//
// A tombstoned record (Deleted=true) retains only id, last_modified,
// deleted and local_only as meaningful; its ciphertexts are dropped.
type Record struct {
	Template     string                               `json:"template"`
	Labels       []string                             `json:"labels"`
	Title        *vaultcrypto.EncryptedData           `json:"title,omitempty"`
	Fields       map[string]vaultcrypto.EncryptedData `json:"fields,omitempty"`
	LastModified Timestamp                            `json:"last_modified"`
	Deleted      bool                                 `json:"deleted"`
	LocalOnly    bool                                 `json:"local_only"`
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	c := &Record{
		Template:     r.Template,
		LastModified: r.LastModified,
		Deleted:      r.Deleted,
		LocalOnly:    r.LocalOnly,
	}

	if r.Labels != nil {
		c.Labels = append([]string(nil), r.Labels...)
	}

	if r.Title != nil {
		t := cloneEncrypted(*r.Title)
		c.Title = &t
	}

	if r.Fields != nil {
		c.Fields = make(map[string]vaultcrypto.EncryptedData, len(r.Fields))
		for id, ed := range r.Fields {
			c.Fields[id] = cloneEncrypted(ed)
		}
	}

	return c
}

// Tombstone strips the record down to its tombstone form.
func (r *Record) Tombstone(at Timestamp) {
	r.Deleted = true
	r.LastModified = at
	r.Title = nil
	r.Fields = nil
	r.Labels = nil
}

// Vault is the complete on-wire vault value. History is an append-only
// ordered sequence of opaque sync-version identifiers.
type Vault struct {
	Records   map[string]*Record                   `json:"records"`
	Labels    map[string]vaultcrypto.EncryptedData `json:"labels"`
	Templates map[string]vaultcrypto.EncryptedData `json:"templates"`
	History   []string                             `json:"history"`
	KDF       vaultcrypto.KDFConfig                `json:"kdf"`
	Sentinel  *vaultcrypto.EncryptedData           `json:"sentinel,omitempty"`
}

// New returns an empty vault bound to the given KDF configuration.
func New(kdf vaultcrypto.KDFConfig) *Vault {
	return &Vault{
		Records:   map[string]*Record{},
		Labels:    map[string]vaultcrypto.EncryptedData{},
		Templates: map[string]vaultcrypto.EncryptedData{},
		History:   []string{},
		KDF:       kdf,
	}
}

// Clone returns a deep copy of the vault. KDF rotation and sync both
// operate on a working copy and swap references only on success.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}

	c := New(v.KDF)

	for id, r := range v.Records {
		c.Records[id] = r.Clone()
	}

	for id, ed := range v.Labels {
		c.Labels[id] = cloneEncrypted(ed)
	}

	for id, ed := range v.Templates {
		c.Templates[id] = cloneEncrypted(ed)
	}

	c.History = append([]string(nil), v.History...)

	if v.Sentinel != nil {
		s := cloneEncrypted(*v.Sentinel)
		c.Sentinel = &s
	}

	return c
}

// Normalize ensures all maps and slices are non-nil after JSON decoding.
func (v *Vault) Normalize() {
	if v.Records == nil {
		v.Records = map[string]*Record{}
	}

	if v.Labels == nil {
		v.Labels = map[string]vaultcrypto.EncryptedData{}
	}

	if v.Templates == nil {
		v.Templates = map[string]vaultcrypto.EncryptedData{}
	}

	if v.History == nil {
		v.History = []string{}
	}
}

// LiveRecords returns the ids of all non-tombstoned records.
func (v *Vault) LiveRecords() []string {
	ids := make([]string, 0, len(v.Records))

	for id, r := range v.Records {
		if r != nil && !r.Deleted {
			ids = append(ids, id)
		}
	}

	return ids
}

// UserProfile is persisted alongside the vault so the UI can restore its
// WebDAV configuration across sessions without re-prompting.
type UserProfile struct {
	WebDAV *WebDAVConfigBlob `json:"webdav_config,omitempty"`
}

// WebDAVConfigBlob holds the WebDAV credentials encrypted under the
// master key.
type WebDAVConfigBlob struct {
	EncryptedData vaultcrypto.EncryptedData `json:"encrypted_data"`
}

func cloneEncrypted(ed vaultcrypto.EncryptedData) vaultcrypto.EncryptedData {
	return vaultcrypto.EncryptedData{
		Ciphertext: append([]byte(nil), ed.Ciphertext...),
		Nonce:      append([]byte(nil), ed.Nonce...),
		Algorithm:  ed.Algorithm,
	}
}
