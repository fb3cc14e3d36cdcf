package util

import (
	"math/rand/v2"
	"time"
)

// GenerateRandomNumber min 이상 max 이하 난수
func GenerateRandomNumber(min, max int) int {
	if max <= min {
		return min
	}
	return min + rand.IntN(max-min+1)
}

// Jitter d 에 최대 ratio 비율만큼 무작위 가산
func Jitter(d time.Duration, ratio float64) time.Duration {
	if d <= 0 || ratio <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*ratio*float64(d))
}
