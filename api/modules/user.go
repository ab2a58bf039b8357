package modules

import (
	"coderanker/api/handlers"
	userservice "coderanker/api/services/user"
)

func initializeUserHandler(deps *ModuleDependencies, svc *services) (*handlers.UserHandler, *userservice.UserService) {
	userDeps := &userservice.UserServiceDeps{
		DB:       deps.DB,
		Engine:   svc.ranking,
		GitHub:   svc.providers.GitHub,
		LeetCode: svc.providers.LeetCode,
		Redis:    deps.Redis,
		Config:   deps.Config.Server,
		Logger:   deps.Logger,
	}

	userService := userservice.NewUserService(userDeps)

	return handlers.NewUserHandler(userService, svc.leaderboard, svc.auth), userService
}
