package dao_test

import (
	"context"
	"fmt"
	"math/big"

	"github.com/opencover/claims_layer/internal/app/dao"
	"github.com/opencover/claims_layer/internal/token"
)

func ExamplePool_CalculatePremium() {
	pool := dao.New(dao.Config{}, token.NewLedger())

	premium := pool.CalculatePremium(context.Background(), big.NewInt(2500))
	fmt.Println(premium)
	// Output: 250
}
