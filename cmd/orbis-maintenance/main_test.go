package main

import (
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWaitForShutdown_Signal(t *testing.T) {
	sigChan := make(chan os.Signal, 1)
	errChan := make(chan error, 1)
	sigChan <- syscall.SIGTERM

	assert.Equal(t, 0, waitForShutdown(sigChan, errChan, zap.NewNop()))
}

func TestWaitForShutdown_ServiceError(t *testing.T) {
	// 服务错误走同一条关闭路径，只改变退出码，不跳过资源释放
	sigChan := make(chan os.Signal, 1)
	errChan := make(chan error, 1)
	errChan <- fmt.Errorf("scheduler wedged")

	assert.Equal(t, 1, waitForShutdown(sigChan, errChan, zap.NewNop()))
}
