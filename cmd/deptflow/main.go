package main

import (
	"fmt"
	"os"
)

func main() {
	err := rootCmd.Execute()
	// 出错时 PersistentPostRun 不会执行
	closeStores()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
