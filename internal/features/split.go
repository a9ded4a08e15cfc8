// Package features turns the master table into model-ready train and test
// partitions. Statistics derived from labels are fitted on the train
// partition only and applied unchanged to both sides.
package features

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/errors"
)

// TrainFrame is the training partition. Only Partition and Split create
// one, so anything that accepts a TrainFrame cannot be handed test rows.
type TrainFrame struct{ df *dataframe.DataFrame }

// TestFrame is the held-out partition.
type TestFrame struct{ df *dataframe.DataFrame }

// Frame returns the partition rows.
func (p TrainFrame) Frame() *dataframe.DataFrame { return p.df }

// Frame returns the partition rows.
func (p TestFrame) Frame() *dataframe.DataFrame { return p.df }

// Release frees the partition.
func (p TrainFrame) Release() {
	if p.df != nil {
		p.df.Release()
	}
}

// Release frees the partition.
func (p TestFrame) Release() {
	if p.df != nil {
		p.df.Release()
	}
}

// Partition splits df by an explicit test mask.
func Partition(df *dataframe.DataFrame, isTest []bool) (TrainFrame, TestFrame, error) {
	if len(isTest) != df.Len() {
		return TrainFrame{}, TestFrame{}, errors.NewInvalidInputError("Partition",
			fmt.Sprintf("mask has %d entries, frame has %d rows", len(isTest), df.Len()))
	}
	isTrain := make([]bool, len(isTest))
	for i, t := range isTest {
		isTrain[i] = !t
	}
	train, err := df.Filter(isTrain)
	if err != nil {
		return TrainFrame{}, TestFrame{}, err
	}
	test, err := df.Filter(isTest)
	if err != nil {
		train.Release()
		return TrainFrame{}, TestFrame{}, err
	}
	return TrainFrame{train}, TestFrame{test}, nil
}

// InTest reports whether a key falls in the test partition. The decision
// depends only on the key and seed, so a row keeps its side across runs
// and across changes to the rest of the table.
func InTest(key string, seed uint64, fraction float64) bool {
	h := xxhash.Sum64String(strconv.FormatUint(seed, 10) + ":" + key)
	// top 53 bits as a uniform float in [0, 1)
	return float64(h>>11)/float64(uint64(1)<<53) < fraction
}

// Split assigns each row by hashing its key column. Rows with a null key
// hash their row position instead.
func Split(df *dataframe.DataFrame, keyColumn string, fraction float64, seed uint64) (TrainFrame, TestFrame, error) {
	if fraction <= 0 || fraction >= 1 {
		return TrainFrame{}, TestFrame{}, errors.NewInvalidInputError("Split",
			fmt.Sprintf("test fraction must be in (0, 1), got %v", fraction))
	}
	keys, valid, err := df.Strings(keyColumn)
	if err != nil {
		return TrainFrame{}, TestFrame{}, err
	}
	isTest := make([]bool, len(keys))
	for i, k := range keys {
		if !valid[i] {
			k = "#" + strconv.Itoa(i)
		}
		isTest[i] = InTest(k, seed, fraction)
	}
	return Partition(df, isTest)
}

// checkDisjoint fails when a key appears on both sides of the split.
func checkDisjoint(train TrainFrame, test TestFrame, keyColumn string) error {
	trainKeys, trainOK, err := train.df.Strings(keyColumn)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(trainKeys))
	for i, k := range trainKeys {
		if trainOK[i] {
			seen[k] = struct{}{}
		}
	}
	testKeys, testOK, err := test.df.Strings(keyColumn)
	if err != nil {
		return err
	}
	for i, k := range testKeys {
		if _, dup := seen[k]; testOK[i] && dup {
			return errors.NewLeakageError("Split", fmt.Sprintf("%s %q is in both partitions", keyColumn, k))
		}
	}
	return nil
}
