package task

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/viant/monoflux/model"
	"github.com/viant/monoflux/service/manifest"
)

// DefaultTokenEnv is the variable carrying the registry token to publish commands.
const DefaultTokenEnv = "NPM_TOKEN"

const publishScript = "publish"

// Release bumps the service version, builds and publishes it.
type Release struct {
	Type      ReleaseType
	DryRun    bool
	SkipTests bool
	// CI turns a final publish failure into a fatal entry, otherwise it is a warning.
	CI bool
	// PublishCommand is used for services declaring no publish script.
	PublishCommand string
	Policy         *RetryPolicy
	Token          TokenSource
	TokenEnv       string
}

func (r *Release) Kind() model.TaskKind          { return model.TaskRelease }
func (r *Release) DefaultTimeout() time.Duration { return DefaultReleaseTimeout }

func (r *Release) Retry() *RetryPolicy {
	if r.Policy == nil {
		return DefaultPublishRetry()
	}
	return r.Policy
}

// publishCommand returns the command publishing svc, empty when svc cannot be published.
func (r *Release) publishCommand(svc *model.ServiceDescriptor) string {
	if svc.Private {
		return ""
	}
	if line, ok := svc.Command(publishScript); ok {
		return line
	}
	return r.PublishCommand
}

func (r *Release) Execute(ctx context.Context, svc *model.ServiceDescriptor, env *Env) *model.TaskResult {
	result := model.NewTaskResult(svc, model.TaskRelease)
	publish := r.publishCommand(svc)
	if publish == "" || svc.Manifest == "" {
		return result.Skip(NoteNotPublishable)
	}
	if !r.SkipTests {
		if line, ok := svc.Command(string(model.TaskTest)); ok {
			if !env.Invoke(ctx, svc, line, nil).Apply(result) {
				return result
			}
		}
	}
	next, err := Bump(svc.Version, r.Type)
	if err != nil {
		return result.Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: err.Error()})
	}
	original, err := env.FS.DownloadWithURL(ctx, svc.Manifest)
	if err != nil {
		return result.Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: fmt.Sprintf("failed to read manifest: %v", err)})
	}
	name := path.Base(url.Path(svc.Manifest))
	updated, err := manifest.SetVersion(name, original, next)
	if err != nil {
		return result.Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: err.Error()})
	}
	patch, stats, err := Diff(original, updated, name)
	if err != nil {
		return result.Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: fmt.Sprintf("failed to diff manifest: %v", err)})
	}
	result.SetDetail("version", svc.Version)
	result.SetDetail("nextVersion", next)
	result.SetDetail("diff", patch)
	result.SetDetail("added", stats.Added)
	result.SetDetail("removed", stats.Removed)
	if r.DryRun {
		result.Note = NoteDryRun
		return result
	}

	if err := env.FS.Upload(ctx, svc.Manifest, file.DefaultFileOsMode, bytes.NewReader(updated)); err != nil {
		return result.Fail(&model.ErrorEntry{Kind: model.ErrorKindExecution, Message: fmt.Sprintf("failed to write manifest: %v", err)})
	}
	if line, ok := svc.Command(string(model.TaskBuild)); ok {
		if !env.Invoke(ctx, svc, line, nil).Apply(result) {
			return result
		}
	}
	r.publish(ctx, svc, env, publish, result)
	return result
}

func (r *Release) publish(ctx context.Context, svc *model.ServiceDescriptor, env *Env, line string, result *model.TaskResult) {
	vars := map[string]string{}
	if r.Token != nil {
		token, err := r.Token.Token(ctx)
		if err != nil {
			r.publishFailed(svc, env, result, &model.ErrorEntry{Kind: model.ErrorKindExecution, Message: err.Error()})
			return
		}
		tokenEnv := r.TokenEnv
		if tokenEnv == "" {
			tokenEnv = DefaultTokenEnv
		}
		vars[tokenEnv] = token
	}
	policy := r.Retry()
	for attempts := 0; ; attempts++ {
		invocation := env.Invoke(ctx, svc, line, vars)
		if invocation.OK() {
			return
		}
		retry, delay := policy.Next(attempts)
		if !retry || invocation.Outcome == model.OutcomeTimeout {
			r.publishFailed(svc, env, result, invocation.Error)
			return
		}
		env.Logger.Info("release: retrying publish", "service", svc.Name, "attempt", attempts+2, "delay", delay, "error", invocation.Error.FirstLine())
		if err := wait(ctx, delay); err != nil {
			r.publishFailed(svc, env, result, invocation.Error)
			return
		}
		result.Retries = attempts + 1
	}
}

// publishFailed records the final publish failure.  The service fails in
// both modes; CI marks the entry fatal while local runs degrade to a warning.
func (r *Release) publishFailed(svc *model.ServiceDescriptor, env *Env, result *model.TaskResult, entry *model.ErrorEntry) {
	result.Fail(entry)
	message := fmt.Sprintf("publish of %s failed after %d attempt(s): %s", svc.Name, result.Retries+1, entry.FirstLine())
	if r.CI {
		env.Logger.Error("release: publish failed", "service", svc.Name, "retries", result.Retries, "error", entry.FirstLine())
		result.AddError(&model.ErrorEntry{Kind: model.ErrorKindFatal, Message: message})
		return
	}
	env.Logger.Warn("release: publish failed", "service", svc.Name, "retries", result.Retries, "error", entry.FirstLine())
	result.AddError(&model.ErrorEntry{Kind: model.ErrorKindWarning, Message: message})
}
