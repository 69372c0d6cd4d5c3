package container

import (
	"regexp"
	"strings"
)

// DockerPrompt asks a model to turn a docker request into one command.
const DockerPrompt = `Convert natural language to a Docker CLI command. Return only the command, nothing else.

Examples:
- "list running containers" -> "docker ps"
- "show all containers" -> "docker ps -a"
- "stop container web" -> "docker stop web"
- "run nginx on port 8080" -> "docker run -d -p 8080:80 nginx"
- "shell into container api" -> "docker exec -it api sh"
- "how much space does docker use" -> "docker system df"`

var dockerRequest = regexp.MustCompile(`(?i)\b(docker(-compose)?|containers?|dockerfile)\b`)

// IsDockerRequest reports whether text is about docker.
func IsDockerRequest(text string) bool {
	return dockerRequest.MatchString(text)
}

var dockerRewrites = []rewrite{
	{regexp.MustCompile(`(?i)^(?:list |show )?(?:the )?(?:running )?containers$`), fixed("docker ps")},
	{regexp.MustCompile(`(?i)^(?:list |show )?all (?:the )?containers$`), fixed("docker ps -a")},
	{regexp.MustCompile(`(?i)^(?:list |show )?(?:the )?(?:docker )?images$`), fixed("docker images")},
	{regexp.MustCompile(`(?i)^(stop|start|restart|pause|unpause) (?:the )?container ([\w.-]+)$`), func(m []string) string {
		return "docker " + strings.ToLower(m[1]) + " " + m[2]
	}},
	{regexp.MustCompile(`(?i)^(?:remove|delete) (?:the )?container ([\w.-]+)$`), func(m []string) string {
		return "docker rm " + m[1]
	}},
	{regexp.MustCompile(`(?i)^(?:show |get )?(?:the )?logs (?:for|of|from) (?:the )?container ([\w.-]+)$`), func(m []string) string {
		return "docker logs --tail 100 " + m[1]
	}},
	{regexp.MustCompile(`(?i)^(?:open a )?shell (?:into|in) (?:the )?container ([\w.-]+)$`), func(m []string) string {
		return "docker exec -it " + m[1] + " sh"
	}},
	{regexp.MustCompile(`(?i)^(?:show )?docker (?:disk|space) usage$`), fixed("docker system df")},
}

// NormalizeDocker turns common docker requests into a command without a
// model. It returns false when the request needs a model to interpret.
func NormalizeDocker(text string) (string, bool) {
	return normalize(text, []string{"docker", "docker-compose"}, dockerRewrites)
}
