package mocks

//go:generate mockgen -destination=./mock_execution_client.go -package=mocks github.com/rxtech-lab/argo-scalper/internal/trading ExecutionClient
//go:generate mockgen -destination=./mock_notifier.go -package=mocks github.com/rxtech-lab/argo-scalper/internal/notify Notifier
//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-scalper/internal/strategy Strategy
