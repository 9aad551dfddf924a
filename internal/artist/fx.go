package artist

import (
	"github.com/smallbiznis/cloudstage/internal/artist/repository"
	"github.com/smallbiznis/cloudstage/internal/artist/service"
	"go.uber.org/fx"
)

var Module = fx.Module("artist.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
