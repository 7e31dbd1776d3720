package utils

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/mmdatafocus/travel_backend/config"
	"gorm.io/gorm"
)

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

// GetSequence returns the next sequence_no for T. The redis counter is used when
// available; otherwise (or on a fresh counter) the max from tx seeds it.
func GetSequence[T any](ctx context.Context, tx *gorm.DB, cache *config.Cache) (int64, error) {
	var model T
	var dbSeq *int64
	if err := tx.Model(&model).Select("max(sequence_no)").Scan(&dbSeq).Error; err != nil {
		return 0, err
	}
	seed := DereferencePtr(dbSeq, 0)

	cacheKey := strings.ToLower(GetTypeName[T]()) + "_seq"
	seqNo, ok, err := cache.Counter(ctx, cacheKey, seed)
	if err != nil || !ok || seqNo <= seed {
		// counter behind the table (flushed cache), fall back to the table
		if ok && err == nil {
			_ = cache.Remove(ctx, cacheKey)
		}
		return seed + 1, nil
	}
	return seqNo, nil
}

func FormatSequence(prefix string, seqNo int64) string {
	return fmt.Sprintf("%s-%06d", prefix, seqNo)
}
