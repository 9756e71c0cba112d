package lockfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Suffix is appended to a file's full name to form its claim marker.
const Suffix = ".lock"

// Names of the two slot locks created inside the shared root directory.
const (
	RootSlotName   = ".root_conversion.lock"
	SubdirSlotName = ".subdir_conversion.lock"
)

// Lock is an exclusive marker file. The zero value is unusable; construct
// with Sidecar or Slot.
type Lock struct {
	path string
	file *os.File
}

// Sidecar returns the claim lock for a candidate file, placed alongside it.
func Sidecar(filePath string) *Lock {
	return &Lock{path: filePath + Suffix}
}

// Slot returns a directory-scoped slot lock with the given marker name.
func Slot(dir, name string) *Lock {
	return &Lock{path: filepath.Join(dir, name)}
}

// Path reports the marker file location.
func (l *Lock) Path() string {
	return l.path
}

// TryAcquire attempts an atomic exclusive create of the marker. It returns
// false without error when the marker already exists (contention). The
// creating process id is written into the marker for diagnostics only.
func (l *Lock) TryAcquire() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		f.Close()
		_ = os.Remove(l.path)
		return false, err
	}
	l.file = f
	return true, nil
}

// Release removes the marker. It is idempotent and safe to call when the
// lock was never acquired.
func (l *Lock) Release() {
	if l.file == nil {
		return
	}
	l.file.Close()
	l.file = nil
	_ = os.Remove(l.path)
}

// Held reports whether this process currently holds the lock.
func (l *Lock) Held() bool {
	return l.file != nil
}

// IsLockArtifact reports whether a directory entry is a lock marker and must
// be skipped by walkers.
func IsLockArtifact(name string) bool {
	return strings.HasSuffix(name, Suffix)
}

// IsNFSArtifact reports whether an entry is a silly-renamed NFS remnant
// (".nfsXXXX" files left behind while another host holds the inode open).
func IsNFSArtifact(name string) bool {
	return strings.HasPrefix(name, ".nfs")
}
