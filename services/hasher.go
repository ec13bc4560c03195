package services

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrHasherClosed = errors.New("hasher is closed")

// hashingResult holds the outcome of a hashing job.
type hashingResult struct {
	hash string
	err  error
}

// hashingJob is either a hash request (hash empty) or a verification of
// password against hash.
type hashingJob struct {
	password string
	hash     string
	result   chan<- hashingResult
}

// Hasher manages a pool of workers for CPU-intensive bcrypt work, so request
// goroutines only ever wait on a channel.
type Hasher struct {
	jobs       chan hashingJob
	done       chan struct{}
	bcryptCost int
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

// NewHasher creates and starts a new Hasher service.
func NewHasher(numWorkers int, cost int) *Hasher {
	if numWorkers < 1 {
		numWorkers = 1
	}
	h := &Hasher{
		jobs:       make(chan hashingJob),
		done:       make(chan struct{}),
		bcryptCost: cost,
	}

	h.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go h.worker()
	}

	return h
}

// worker is a background goroutine that processes hashing jobs until Close.
func (h *Hasher) worker() {
	defer h.wg.Done()
	for {
		select {
		case job := <-h.jobs:
			job.result <- h.run(job)
		case <-h.done:
			return
		}
	}
}

func (h *Hasher) run(job hashingJob) hashingResult {
	if job.hash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(job.password), h.bcryptCost)
		return hashingResult{hash: string(hash), err: err}
	}
	return hashingResult{err: CheckPassword(job.hash, job.password)}
}

func (h *Hasher) submit(ctx context.Context, job hashingJob) (hashingResult, error) {
	if err := ctx.Err(); err != nil {
		return hashingResult{}, err
	}
	result := make(chan hashingResult, 1)
	job.result = result

	select {
	case h.jobs <- job:
	case <-h.done:
		return hashingResult{}, ErrHasherClosed
	case <-ctx.Done():
		return hashingResult{}, ctx.Err()
	}

	select {
	case res := <-result:
		return res, nil
	case <-ctx.Done():
		return hashingResult{}, ctx.Err()
	}
}

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	res, err := h.submit(ctx, hashingJob{password: password})
	if err != nil {
		return "", err
	}
	return res.hash, res.err
}

// Verify reports whether password matches hash. A mismatch is not an error;
// a malformed hash is.
func (h *Hasher) Verify(ctx context.Context, hash, password string) (bool, error) {
	if hash == "" {
		return false, bcrypt.ErrHashTooShort
	}
	res, err := h.submit(ctx, hashingJob{password: password, hash: hash})
	if err != nil {
		return false, err
	}
	if errors.Is(res.err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if res.err != nil {
		return false, res.err
	}
	return true, nil
}

// Close stops the workers. Jobs submitted afterwards fail with ErrHasherClosed.
func (h *Hasher) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
	h.wg.Wait()
}

// CheckPassword compares a plaintext password with a stored bcrypt hash.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
