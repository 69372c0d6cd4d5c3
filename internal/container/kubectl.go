package container

import (
	"regexp"
	"strings"
)

// KubectlPrompt asks a model to turn a kubernetes request into one command.
const KubectlPrompt = `Convert natural language to a kubectl command. Return only the command, nothing else.

Examples:
- "check cluster status" -> "kubectl cluster-info"
- "get all pods" -> "kubectl get pods --all-namespaces"
- "describe pod nginx" -> "kubectl describe pod nginx"
- "scale deployment nginx to 3 replicas" -> "kubectl scale deployment nginx --replicas=3"
- "apply deployment.yaml" -> "kubectl apply -f deployment.yaml"
- "port forward service nginx 8080:80" -> "kubectl port-forward service/nginx 8080:80"`

// KubectlQueryPrompt asks a model for the read-only commands that answer a
// question about a cluster.
const KubectlQueryPrompt = `You are a Kubernetes expert. Given a question about a cluster, list the kubectl commands whose output answers it.
Respond ONLY with a JSON array of strings, each a complete read-only kubectl command.

Examples:
"how many clusters are configured" -> ["kubectl config get-contexts", "kubectl cluster-info"]
"what pods are running in the default namespace" -> ["kubectl get pods -n default"]
"what's the health of my cluster" -> ["kubectl get nodes", "kubectl get events --sort-by=.lastTimestamp"]`

var kubectlRequest = regexp.MustCompile(`(?i)\b(kubectl|k8s|kubernetes|kube|pods?|namespaces?|replicas)\b`)

// IsKubectlRequest reports whether text is about kubernetes.
func IsKubectlRequest(text string) bool {
	return kubectlRequest.MatchString(text)
}

var kubectlRewrites = []rewrite{
	{regexp.MustCompile(`(?i)^(?:check |show )?(?:the )?(?:k8s |kubernetes )?cluster (?:status|info)$`), fixed("kubectl cluster-info")},
	{regexp.MustCompile(`(?i)^(?:get|list|show) all pods$`), fixed("kubectl get pods --all-namespaces")},
	{regexp.MustCompile(`(?i)^(?:get|list|show) (?:the )?pods in (?:the )?([\w-]+)(?: namespace)?$`), func(m []string) string {
		return "kubectl get pods -n " + m[1]
	}},
	{regexp.MustCompile(`(?i)^(?:get|list|show) (?:the )?(pods|services|nodes|deployments|namespaces|events)$`), func(m []string) string {
		return "kubectl get " + strings.ToLower(m[1])
	}},
	{regexp.MustCompile(`(?i)^describe (pod|service|node|deployment) ([\w.-]+)$`), func(m []string) string {
		return "kubectl describe " + strings.ToLower(m[1]) + " " + m[2]
	}},
	{regexp.MustCompile(`(?i)^scale (?:deployment )?([\w.-]+) to (\d+)(?: replicas)?$`), func(m []string) string {
		return "kubectl scale deployment " + m[1] + " --replicas=" + m[2]
	}},
	{regexp.MustCompile(`(?i)^(?:get |show )?logs (?:for|of|from) (?:pod )?([\w.-]+)$`), func(m []string) string {
		return "kubectl logs " + m[1]
	}},
	{regexp.MustCompile(`(?i)^(?:get |show )?(?:pod |k8s |kubernetes )?resource usage$`), fixed("kubectl top nodes && kubectl top pods")},
}

// NormalizeKubectl turns common kubernetes requests into a command without a
// model. It returns false when the request needs a model to interpret.
func NormalizeKubectl(text string) (string, bool) {
	return normalize(text, []string{"kubectl"}, kubectlRewrites)
}

// readOnlyVerbs are the kubectl subcommands allowed in answers to questions.
var readOnlyVerbs = map[string]bool{
	"get": true, "describe": true, "logs": true, "top": true, "cluster-info": true,
	"version": true, "api-resources": true, "explain": true, "config": true, "auth": true,
}

// IsReadOnly reports whether command is a kubectl command that only reads
// cluster state. "config" is limited to get-contexts and current-context.
func IsReadOnly(command string) bool {
	fields := strings.Fields(command)
	if len(fields) < 2 || fields[0] != "kubectl" || strings.ContainsAny(command, ";&|><`$") {
		return false
	}
	verb := fields[1]
	if !readOnlyVerbs[verb] {
		return false
	}
	if verb == "config" {
		return len(fields) > 2 && (fields[2] == "get-contexts" || fields[2] == "current-context")
	}
	return true
}

// QueryCommands picks commands that answer a cluster question without a
// model.
func QueryCommands(question string) []string {
	q := strings.ToLower(question)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(q, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("cluster") && has("how many", "running", "context"):
		return []string{"kubectl config get-contexts", "kubectl cluster-info"}
	case has("pod"):
		return []string{"kubectl get pods --all-namespaces"}
	case has("deployment"):
		return []string{"kubectl get deployments --all-namespaces"}
	case has("service"):
		return []string{"kubectl get services --all-namespaces"}
	case has("node"):
		return []string{"kubectl get nodes", "kubectl top nodes"}
	case has("namespace"):
		return []string{"kubectl get namespaces"}
	case has("health", "status"):
		return []string{"kubectl get nodes", "kubectl get events --sort-by=.lastTimestamp"}
	}
	return []string{"kubectl cluster-info", "kubectl get pods --all-namespaces"}
}
