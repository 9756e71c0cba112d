package lockfile

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestSidecarPath(t *testing.T) {
	l := Sidecar("/inbox/Show - 03.mkv")
	if l.Path() != "/inbox/Show - 03.mkv.lock" {
		t.Fatalf("unexpected sidecar path: %s", l.Path())
	}
}

func TestTryAcquireExactlyOneWinner(t *testing.T) {
	target := filepath.Join(t.TempDir(), "file.mkv")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	wins := make(chan *Lock, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := Sidecar(target)
			<-start
			ok, err := l.TryAcquire()
			if err != nil {
				t.Errorf("TryAcquire: %v", err)
				return
			}
			if ok {
				wins <- l
			}
		}()
	}
	close(start)
	wg.Wait()
	close(wins)

	var winners []*Lock
	for l := range wins {
		winners = append(winners, l)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(winners))
	}
	winners[0].Release()
	if _, err := os.Stat(target + Suffix); !os.IsNotExist(err) {
		t.Fatal("marker should be removed after release")
	}
}

func TestTryAcquireContention(t *testing.T) {
	dir := t.TempDir()
	first := Slot(dir, RootSlotName)
	second := Slot(dir, RootSlotName)

	ok, err := first.TryAcquire()
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = second.TryAcquire()
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("second acquire should observe contention")
	}
	first.Release()

	ok, err = second.TryAcquire()
	if err != nil || !ok {
		t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
	}
	second.Release()
}

func TestReleaseIdempotent(t *testing.T) {
	l := Slot(t.TempDir(), SubdirSlotName)
	// Never acquired: must not panic or create anything.
	l.Release()

	if ok, err := l.TryAcquire(); err != nil || !ok {
		t.Fatalf("acquire: ok=%v err=%v", ok, err)
	}
	l.Release()
	l.Release()
	if l.Held() {
		t.Fatal("lock should not report held after release")
	}
}

func TestArtifactDetection(t *testing.T) {
	if !IsLockArtifact("video.mkv.lock") || IsLockArtifact("video.mkv") {
		t.Fatal("lock artifact detection broken")
	}
	if !IsLockArtifact(RootSlotName) || !IsLockArtifact(SubdirSlotName) {
		t.Fatal("slot markers must be treated as lock artifacts")
	}
	if !IsNFSArtifact(".nfs000000123") || IsNFSArtifact("movie.nfs.mkv") {
		t.Fatal("nfs artifact detection broken")
	}
}
