package config_test

import (
	"overwatch/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// loadValidated is a shorthand for LoadAndValidate over a single fixture file.
func loadValidated(hcl string) (*config.Config, error) {
	_, f := writeFixture("config.hcl", hcl)
	return config.LoadAndValidate(f)
}

var _ = Describe("Validation", func() {

	BeforeEach(func() {
		isolateHome()
	})

	Describe("defaults", func() {
		It("fills every missing block with defaults", func() {
			cfg, err := loadValidated(fullBaseHCL())
			Expect(err).NotTo(HaveOccurred())

			Expect(cfg.Executor.Workspace).To(Equal("generated_project"))
			Expect(cfg.Gate.TimeoutSeconds).To(Equal(30))
			Expect(cfg.Gate.CancelToken).To(Equal("cancel"))
			Expect(cfg.Gate.Disabled).To(BeFalse())
			Expect(cfg.Storage.Backend).To(Equal("memory"))
			Expect(cfg.Storage.Path).To(Equal(".overwatch/store.db"))
			Expect(cfg.Observer.Enabled).To(BeFalse())
			Expect(cfg.Observer.ListenAddr).To(Equal(":8377"))
			Expect(cfg.Observer.PollIntervalMS).To(Equal(500))
		})

		It("keeps explicit values over defaults", func() {
			cfg, err := loadValidated(fullBaseHCL() + `
gate {
  timeout_seconds = 120
}
`)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Gate.TimeoutSeconds).To(Equal(120))
			Expect(cfg.Gate.CancelToken).To(Equal("cancel"))
		})
	})

	Describe("models", func() {
		It("rejects an unsupported provider", func() {
			_, err := loadValidated(minimalVarsHCL() + `
model "bad" {
  provider = "cohere"
  model    = "command-r"
  api_key  = vars.test_api_key
}
` + `
planner {
  type      = "file"
  plan_path = "plan.json"
}

executor {
  type        = "plugin"
  plugin_path = "./plugin"
}
`)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("model 'bad'"))
			Expect(err.Error()).To(ContainSubstring("not supported"))
		})

		It("requires a model name", func() {
			m := config.Model{Name: "x", Provider: config.ProviderOpenAI}
			Expect(m.Validate()).To(MatchError(ContainSubstring("model name is required")))
		})

		It("finds models by block name", func() {
			cfg, err := loadValidated(fullBaseHCL())
			Expect(err).NotTo(HaveOccurred())

			m, err := cfg.FindModel("sonnet")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Provider).To(Equal(config.ProviderAnthropic))

			_, err = cfg.FindModel("opus")
			Expect(err).To(MatchError(ContainSubstring("model 'opus' not found")))
		})
	})

	Describe("variables", func() {
		It("rejects a secret variable with a default", func() {
			_, err := loadValidated(`
variable "api_key" {
  secret  = true
  default = "leaked"
}
` + minimalModelHCL() + minimalPlannerHCL() + minimalExecutorHCL() + minimalVarsHCL())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("variable 'api_key'"))
		})
	})

	Describe("planner", func() {
		It("requires a model for the llm planner", func() {
			_, err := loadValidated(minimalVarsHCL() + minimalModelHCL() + `
planner {
  type = "llm"
}
` + minimalExecutorHCL())
			Expect(err).To(MatchError(ContainSubstring("llm planner requires a model")))
		})

		It("rejects a reference to an unknown model", func() {
			_, err := loadValidated(minimalVarsHCL() + minimalModelHCL() + `
planner {
  type  = "llm"
  model = "opus"
}
` + minimalExecutorHCL())
			Expect(err).To(MatchError(ContainSubstring("unknown model 'opus'")))
		})

		It("requires plan_path for the file planner", func() {
			_, err := loadValidated(minimalVarsHCL() + minimalModelHCL() + `
planner {
  type = "file"
}
` + minimalExecutorHCL())
			Expect(err).To(MatchError(ContainSubstring("file planner requires plan_path")))
		})

		It("rejects an unknown planner type", func() {
			_, err := loadValidated(minimalVarsHCL() + minimalModelHCL() + `
planner {
  type = "oracle"
}
` + minimalExecutorHCL())
			Expect(err).To(MatchError(ContainSubstring("unknown planner type 'oracle'")))
		})
	})

	Describe("executor", func() {
		It("requires a model for the agent executor", func() {
			_, err := loadValidated(minimalVarsHCL() + minimalModelHCL() + minimalPlannerHCL() + `
executor {
  type = "agent"
}
`)
			Expect(err).To(MatchError(ContainSubstring("agent executor requires a model")))
		})

		It("requires plugin_path for the plugin executor", func() {
			_, err := loadValidated(minimalVarsHCL() + minimalModelHCL() + minimalPlannerHCL() + `
executor {
  type = "plugin"
}
`)
			Expect(err).To(MatchError(ContainSubstring("plugin executor requires plugin_path")))
		})

		It("rejects negative max_iterations", func() {
			_, err := loadValidated(minimalVarsHCL() + minimalModelHCL() + minimalPlannerHCL() + `
executor {
  type           = "agent"
  model          = "sonnet"
  max_iterations = -1
}
`)
			Expect(err).To(MatchError(ContainSubstring("max_iterations must not be negative")))
		})
	})

	Describe("storage", func() {
		It("requires a dsn for the postgres backend", func() {
			_, err := loadValidated(fullBaseHCL() + `
storage {
  backend = "postgres"
}
`)
			Expect(err).To(MatchError(ContainSubstring("postgres backend requires dsn")))
		})

		It("rejects an unknown backend", func() {
			_, err := loadValidated(fullBaseHCL() + `
storage {
  backend = "dynamo"
}
`)
			Expect(err).To(MatchError(ContainSubstring("unknown storage backend")))
		})
	})
})
