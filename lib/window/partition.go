package window

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

//PartitionPolicy bounds the partitions of a window, one of PartitionAge, PartitionCount or TupleCount
type PartitionPolicy interface {
	String() string
	validate() error
}

//PartitionAge drops partitions that received no tuple for longer than Age
type PartitionAge struct {
	Age time.Duration
}

func (p PartitionAge) String() string { return fmt.Sprintf("partition-age(%s)", p.Age) }

func (p PartitionAge) validate() error {
	if p.Age <= 0 {
		return errors.WithMessagef(ErrInvalidPolicy, "partition age must be positive, got %s", p.Age)
	}
	return nil
}

//PartitionCount keeps at most Count partitions
type PartitionCount struct {
	Count int
}

func (p PartitionCount) String() string { return fmt.Sprintf("partition-count(%d)", p.Count) }

func (p PartitionCount) validate() error {
	if p.Count <= 0 {
		return errors.WithMessagef(ErrInvalidPolicy, "partition count must be positive, got %d", p.Count)
	}
	return nil
}

//TupleCount keeps at most Count tuples over all partitions by dropping whole partitions
type TupleCount struct {
	Count int
}

func (p TupleCount) String() string { return fmt.Sprintf("tuple-count(%d)", p.Count) }

func (p TupleCount) validate() error {
	if p.Count <= 0 {
		return errors.WithMessagef(ErrInvalidPolicy, "tuple count must be positive, got %d", p.Count)
	}
	return nil
}

//partitionEvictor selects whole partitions to drop, the caller removes them
type partitionEvictor[T any, K comparable] struct {
	policy PartitionPolicy
}

//before returns the partitions to drop before a tuple is inserted into key
func (p *partitionEvictor[T, K]) before(s *storage[T, K], key K, exists bool, now time.Time, selection SelectionHandler[K]) []K {
	switch policy := p.policy.(type) {
	case PartitionAge:
		var victims []K
		deadline := now.Add(-policy.Age)
		for _, candidate := range s.byAge() {
			if !s.lastTouch(candidate).Before(deadline) {
				break
			}
			victims = append(victims, candidate)
		}
		return victims
	case PartitionCount:
		partitions := s.Size() + 1
		if exists || partitions <= policy.Count {
			return nil
		}
		return p.choose(s, key, selection, func(victim *buffer[T]) bool {
			if partitions <= policy.Count {
				return false
			}
			partitions--
			return true
		})
	default:
		return nil
	}
}

//after returns the partitions to drop once a tuple was inserted into key
func (p *partitionEvictor[T, K]) after(s *storage[T, K], key K, selection SelectionHandler[K]) []K {
	policy, ok := p.policy.(TupleCount)
	if !ok {
		return nil
	}
	tuples := s.Count()
	if tuples <= policy.Count {
		return nil
	}
	return p.choose(s, key, selection, func(victim *buffer[T]) bool {
		if tuples <= policy.Count {
			return false
		}
		tuples -= victim.Len()
		return true
	})
}

//choose walks the selected partitions then the least recently touched ones, current is never chosen,
//take reports whether the bound is still exceeded and accounts for the victim
func (p *partitionEvictor[T, K]) choose(s *storage[T, K], current K, selection SelectionHandler[K], take func(victim *buffer[T]) bool) []K {
	var (
		victims []K
		seen    = map[K]bool{current: true}
		order   = s.byAge()
	)
	consider := func(candidate K) bool {
		if seen[candidate] {
			return true
		}
		b, ok := s.get(candidate)
		if !ok {
			return true
		}
		seen[candidate] = true
		if !take(b) {
			return false
		}
		victims = append(victims, candidate)
		return true
	}
	if selection != nil {
		candidates := make([]Candidate[K], 0, len(order))
		for _, key := range order {
			if key == current {
				continue
			}
			b, _ := s.get(key)
			candidates = append(candidates, Candidate[K]{Partition: key, LastTouch: s.lastTouch(key), Count: b.Len()})
		}
		if len(candidates) == 0 {
			return nil
		}
		for _, candidate := range selection(candidates) {
			if !consider(candidate) {
				return victims
			}
		}
	}
	for _, candidate := range order {
		if !consider(candidate) {
			return victims
		}
	}
	return victims
}
