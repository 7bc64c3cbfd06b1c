package codep

import "fmt"

// test helpers shared by the package tests

func cellName(i int) string {
	return fmt.Sprintf("ACH-%06d", i+1)
}
