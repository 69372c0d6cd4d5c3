package agent

import (
	"context"
	"errors"
	"fmt"

	"termagent/internal/logging"
	"termagent/internal/security"
	"termagent/internal/tools"
)

// execute validates, confirms and runs one command. Commands the user did
// not type verbatim (generated is true) always need approval; typed commands
// only when the validator flags them.
func (d *Deps) execute(ctx context.Context, req *Request, command string, generated bool) (*Response, *tools.Result, error) {
	resp := &Response{Command: command}
	if command == "" {
		resp.Output = "Nothing to run."
		return resp, nil, nil
	}

	v := d.Shell.Validate(command)
	if !v.Valid {
		resp.ExitCode = -1
		resp.Output = "Blocked: " + v.Reason
		resp.Notice = "command refused by the safety rules"
		return resp, nil, nil
	}

	if generated || v.Level == security.LevelCaution {
		prompt := "Run: " + command
		if v.Level == security.LevelCaution {
			prompt += fmt.Sprintf(" (caution: %s)", v.Reason)
		}
		if !req.confirm(prompt) {
			logging.Info("command declined", "command", command)
			resp.Output = "Cancelled."
			resp.Command = ""
			return resp, nil, nil
		}
	}

	res, err := d.Shell.Run(ctx, command)
	if err != nil {
		if errors.Is(err, tools.ErrCommandBlocked) {
			resp.ExitCode = -1
			resp.Output = err.Error()
			return resp, nil, nil
		}
		return nil, nil, err
	}

	resp.ExitCode = res.ExitCode
	resp.Output = res.Output()
	if !res.Success() {
		ref := d.Reflector.Analyze(command, res.Output(), res.ExitCode)
		resp.Suggestions = ref.Alternatives
		resp.Notice = res.Summary() + "; " + ref.Suggestion
	}
	return resp, res, nil
}
