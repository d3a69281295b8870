//
// Tencent is pleased to support the open source community by making trpc-agentflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agentflow-go is licensed under the Apache License Version 2.0.
//
//

// Package flow defines the declarative description of a multi-agent
// conversation flow and how it is loaded, checked and named.
package flow

// Flow is the root document.
type Flow struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Requirements []string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	// IsAsync makes the generated program use the a_* chat entry points.
	IsAsync bool `json:"isAsync,omitempty" yaml:"isAsync,omitempty"`
	// CacheSeed is passed to every llm_config; nil disables caching.
	CacheSeed *int `json:"cacheSeed,omitempty" yaml:"cacheSeed,omitempty"`

	Agents []Agent `json:"agents" yaml:"agents"`
	Models []Model `json:"models,omitempty" yaml:"models,omitempty"`
	Skills []Skill `json:"skills,omitempty" yaml:"skills,omitempty"`
	Chats  []Chat  `json:"chats,omitempty" yaml:"chats,omitempty"`
}

// AgentType selects the AG2 class an agent is generated as.
type AgentType string

// Supported agent types.
const (
	AgentUser      AgentType = "user"
	AgentAssistant AgentType = "assistant"
	AgentManager   AgentType = "manager"
	AgentSwarm     AgentType = "swarm"
	AgentReasoning AgentType = "reasoning"
	AgentCaptain   AgentType = "captain"
	AgentRAGUser   AgentType = "rag_user"
)

// Agent is one participant.
type Agent struct {
	ID                      string         `json:"id" yaml:"id"`
	Name                    string         `json:"name" yaml:"name"`
	Type                    AgentType      `json:"type" yaml:"type"`
	Description             string         `json:"description,omitempty" yaml:"description,omitempty"`
	SystemMessage           string         `json:"systemMessage,omitempty" yaml:"systemMessage,omitempty"`
	HumanInputMode          string         `json:"humanInputMode,omitempty" yaml:"humanInputMode,omitempty"`
	MaxConsecutiveAutoReply *int           `json:"maxConsecutiveAutoReply,omitempty" yaml:"maxConsecutiveAutoReply,omitempty"`
	DefaultAutoReply        string         `json:"defaultAutoReply,omitempty" yaml:"defaultAutoReply,omitempty"`
	CodeExecution           *CodeExecution `json:"codeExecution,omitempty" yaml:"codeExecution,omitempty"`
	Termination             Termination    `json:"termination,omitempty" yaml:"termination,omitempty"`
	ModelIDs                []string       `json:"modelIds,omitempty" yaml:"modelIds,omitempty"`
	Skills                  []AgentSkill   `json:"skills,omitempty" yaml:"skills,omitempty"`
	NestedChats             []NestedChat   `json:"nestedChats,omitempty" yaml:"nestedChats,omitempty"`

	GroupChat *GroupChat `json:"groupChat,omitempty" yaml:"groupChat,omitempty"`
	Swarm     *Swarm     `json:"swarm,omitempty" yaml:"swarm,omitempty"`
	Reasoning *Reasoning `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	Captain   *Captain   `json:"captain,omitempty" yaml:"captain,omitempty"`
	Retrieve  *Retrieve  `json:"retrieve,omitempty" yaml:"retrieve,omitempty"`
}

// CodeExecution configures local code execution for an agent.
type CodeExecution struct {
	WorkDir       string `json:"workDir,omitempty" yaml:"workDir,omitempty"`
	UseDocker     bool   `json:"useDocker,omitempty" yaml:"useDocker,omitempty"`
	Timeout       int    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	LastNMessages int    `json:"lastNMessages,omitempty" yaml:"lastNMessages,omitempty"`
	// Functions are skill IDs made available to the executor.
	Functions []string `json:"functions,omitempty" yaml:"functions,omitempty"`
}

// TerminationType selects how an agent detects the end of a conversation.
type TerminationType string

// Termination types.
const (
	TerminationNone    TerminationType = "none"
	TerminationKeyword TerminationType = "keyword"
	TerminationMethod  TerminationType = "method"
)

// Keyword criteria.
const (
	CriterionFound  = "found"
	CriterionEnding = "ending"
	CriterionExact  = "exact"
)

// Termination is an agent's termination check.
type Termination struct {
	Type     TerminationType `json:"type,omitempty" yaml:"type,omitempty"`
	Keywords []string        `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	// Criterion is one of found, ending, exact. Empty means exact.
	Criterion string `json:"criterion,omitempty" yaml:"criterion,omitempty"`
	// MethodContent must define is_termination_message(message).
	MethodContent string `json:"methodContent,omitempty" yaml:"methodContent,omitempty"`
}

// AgentSkill links a skill to the agent that proposes it and the agent that
// executes it.
type AgentSkill struct {
	ID         string `json:"id" yaml:"id"`
	ExecutorID string `json:"executorId" yaml:"executorId"`
}

// NestedChat registers chats run by an agent when one of Triggers talks to it.
type NestedChat struct {
	Triggers []string            `json:"triggers" yaml:"triggers"`
	Messages []NestedChatMessage `json:"messages" yaml:"messages"`
}

// NestedChatMessage references a chat used in a nested queue.
type NestedChatMessage struct {
	ChatID string `json:"chatId" yaml:"chatId"`
	// IsReply uses the chat's nested reply instead of its nested message.
	IsReply bool `json:"isReply,omitempty" yaml:"isReply,omitempty"`
}

// Speaker selection methods.
const (
	SpeakerAuto       = "auto"
	SpeakerManual     = "manual"
	SpeakerRandom     = "random"
	SpeakerRoundRobin = "round_robin"
	SpeakerCustom     = "custom"
)

// GroupChat is the group a manager agent runs.
type GroupChat struct {
	// Members are agent IDs, in speaking order.
	Members            []string         `json:"members" yaml:"members"`
	MaxRound           int              `json:"maxRound,omitempty" yaml:"maxRound,omitempty"`
	AdminName          string           `json:"adminName,omitempty" yaml:"adminName,omitempty"`
	SpeakerSelection   SpeakerSelection `json:"speakerSelection,omitempty" yaml:"speakerSelection,omitempty"`
	AllowRepeatSpeaker *bool            `json:"allowRepeatSpeaker,omitempty" yaml:"allowRepeatSpeaker,omitempty"`
	SendIntroductions  bool             `json:"sendIntroductions,omitempty" yaml:"sendIntroductions,omitempty"`
	EnableClearHistory bool             `json:"enableClearHistory,omitempty" yaml:"enableClearHistory,omitempty"`
}

// SpeakerSelection picks the next speaker of a group.
type SpeakerSelection struct {
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
	// CustomContent must define custom_speaker_selection(last_speaker, groupchat).
	CustomContent string `json:"customContent,omitempty" yaml:"customContent,omitempty"`
}

// Swarm holds swarm-agent specific settings.
type Swarm struct {
	// Functions are skill IDs passed as functions=[...].
	Functions            []string              `json:"functions,omitempty" yaml:"functions,omitempty"`
	UpdateSystemMessages []UpdateSystemMessage `json:"updateSystemMessages,omitempty" yaml:"updateSystemMessages,omitempty"`
	Handoffs             []Handoff             `json:"handoffs,omitempty" yaml:"handoffs,omitempty"`
	// IsInitial marks the agent that starts the swarm chat.
	IsInitial bool `json:"isInitial,omitempty" yaml:"isInitial,omitempty"`
}

// UpdateSystemMessage is a string template or a callable source.
type UpdateSystemMessage struct {
	// Type is "string" or "callable".
	Type    string `json:"type" yaml:"type"`
	Content string `json:"content" yaml:"content"`
}

// Handoff kinds.
const (
	HandoffOnCondition = "on_condition"
	HandoffAfterWork   = "after_work"
)

// Handoff is one swarm transition.
type Handoff struct {
	Kind string `json:"kind" yaml:"kind"`
	// Target is an agent ID, or a chat ID when TargetIsNested is set.
	Target         string `json:"target,omitempty" yaml:"target,omitempty"`
	TargetIsNested bool   `json:"targetIsNested,omitempty" yaml:"targetIsNested,omitempty"`
	Condition      string `json:"condition,omitempty" yaml:"condition,omitempty"`
	// Available gates an on_condition handoff.
	Available HandoffAvailable `json:"available,omitempty" yaml:"available,omitempty"`
	AfterWork AfterWork        `json:"afterWork,omitempty" yaml:"afterWork,omitempty"`
}

// HandoffAvailable is "none", "string" (a context variable name) or
// "callable" (custom_on_condition_available source).
type HandoffAvailable struct {
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// AfterWork is "option" (TERMINATE, REVERT_TO_USER, STAY,
// SWARM_MANAGER), "agent" (an agent ID) or "callable".
type AfterWork struct {
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Reasoning configures a ReasoningAgent.
type Reasoning struct {
	Method         string `json:"method,omitempty" yaml:"method,omitempty"`
	MaxDepth       int    `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty"`
	BeamSize       int    `json:"beamSize,omitempty" yaml:"beamSize,omitempty"`
	AnswerApproach string `json:"answerApproach,omitempty" yaml:"answerApproach,omitempty"`
	Verbose        bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Captain configures a CaptainAgent.
type Captain struct {
	MaxRound int    `json:"maxRound,omitempty" yaml:"maxRound,omitempty"`
	MaxTurns int    `json:"maxTurns,omitempty" yaml:"maxTurns,omitempty"`
	ToolLib  string `json:"toolLib,omitempty" yaml:"toolLib,omitempty"`
	// AgentLib is written next to the script as {flow}_{agent}_agent_lib.json.
	AgentLib []CaptainLibEntry `json:"agentLib,omitempty" yaml:"agentLib,omitempty"`
}

// CaptainLibEntry is one agent the captain may recruit.
type CaptainLibEntry struct {
	Name          string `json:"name" yaml:"name"`
	Description   string `json:"description" yaml:"description"`
	SystemMessage string `json:"systemMessage" yaml:"systemMessage"`
}

// Retrieve configures a RetrieveUserProxyAgent.
type Retrieve struct {
	Task           string   `json:"task,omitempty" yaml:"task,omitempty"`
	DocsPath       []string `json:"docsPath,omitempty" yaml:"docsPath,omitempty"`
	ChunkTokenSize int      `json:"chunkTokenSize,omitempty" yaml:"chunkTokenSize,omitempty"`
	Model          string   `json:"model,omitempty" yaml:"model,omitempty"`
	Collection     string   `json:"collection,omitempty" yaml:"collection,omitempty"`
	GetOrCreate    bool     `json:"getOrCreate,omitempty" yaml:"getOrCreate,omitempty"`
	// VectorDB is chroma, pgvector, qdrant or mongodb.
	VectorDB string `json:"vectorDb,omitempty" yaml:"vectorDb,omitempty"`
	DBPath   string `json:"dbPath,omitempty" yaml:"dbPath,omitempty"`
	// Callable sources for custom_* slots.
	EmbeddingFunction  string `json:"embeddingFunction,omitempty" yaml:"embeddingFunction,omitempty"`
	TokenCountFunction string `json:"tokenCountFunction,omitempty" yaml:"tokenCountFunction,omitempty"`
	TextSplitFunction  string `json:"textSplitFunction,omitempty" yaml:"textSplitFunction,omitempty"`
}

// Model is an LLM configuration.
type Model struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Description    string            `json:"description,omitempty" yaml:"description,omitempty"`
	APIType        string            `json:"apiType,omitempty" yaml:"apiType,omitempty"`
	BaseURL        string            `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	APIKey         string            `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	APIVersion     string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Temperature    *float64          `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP           *float64          `json:"topP,omitempty" yaml:"topP,omitempty"`
	MaxTokens      *int              `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty"`
	DefaultHeaders map[string]string `json:"defaultHeaders,omitempty" yaml:"defaultHeaders,omitempty"`
	Price          *Price            `json:"price,omitempty" yaml:"price,omitempty"`
}

// Price is the per-1k-token cost of a model.
type Price struct {
	PromptTokens     float64 `json:"promptTokens" yaml:"promptTokens"`
	CompletionTokens float64 `json:"completionTokens" yaml:"completionTokens"`
}

// Skill is a Python tool function.
type Skill struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Content must define a function named after the skill.
	Content string            `json:"content" yaml:"content"`
	Secrets map[string]string `json:"secrets,omitempty" yaml:"secrets,omitempty"`
}

// Chat message types.
const (
	MessageNone                = "none"
	MessageString              = "string"
	MessageMethod              = "method"
	MessageRAGMessageGenerator = "rag_message_generator"
)

// ChatMessage is the opening message of a chat.
type ChatMessage struct {
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	// Content is the text, or a callable_message source for "method".
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Summary methods.
const (
	SummaryLastMsg    = "last_msg"
	SummaryReflection = "reflection_with_llm"
)

// Chat is a directed conversation between two agents.
type Chat struct {
	ID            string      `json:"id" yaml:"id"`
	Name          string      `json:"name,omitempty" yaml:"name,omitempty"`
	Description   string      `json:"description,omitempty" yaml:"description,omitempty"`
	Source        string      `json:"source" yaml:"source"`
	Target        string      `json:"target" yaml:"target"`
	Order         int         `json:"order" yaml:"order"`
	ClearHistory  *bool       `json:"clearHistory,omitempty" yaml:"clearHistory,omitempty"`
	MaxTurns      *int        `json:"maxTurns,omitempty" yaml:"maxTurns,omitempty"`
	SummaryMethod string      `json:"summaryMethod,omitempty" yaml:"summaryMethod,omitempty"`
	SummaryPrompt string      `json:"summaryPrompt,omitempty" yaml:"summaryPrompt,omitempty"`
	Message       ChatMessage `json:"message,omitempty" yaml:"message,omitempty"`
	Silent        bool        `json:"silent,omitempty" yaml:"silent,omitempty"`
	// Nested holds the message and reply used when the chat runs nested.
	Nested NestedMessages `json:"nested,omitempty" yaml:"nested,omitempty"`
	// Prerequisites are chat IDs that must finish first (async flows).
	Prerequisites []string `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
}

// NestedMessages are the nested_chat_message / nested_chat_reply sources.
type NestedMessages struct {
	Message ChatMessage `json:"message,omitempty" yaml:"message,omitempty"`
	Reply   ChatMessage `json:"reply,omitempty" yaml:"reply,omitempty"`
}

// Agent returns the agent with id.
func (f *Flow) Agent(id string) (*Agent, bool) {
	for i := range f.Agents {
		if f.Agents[i].ID == id {
			return &f.Agents[i], true
		}
	}
	return nil, false
}

// Model returns the model with id.
func (f *Flow) Model(id string) (*Model, bool) {
	for i := range f.Models {
		if f.Models[i].ID == id {
			return &f.Models[i], true
		}
	}
	return nil, false
}

// Skill returns the skill with id.
func (f *Flow) Skill(id string) (*Skill, bool) {
	for i := range f.Skills {
		if f.Skills[i].ID == id {
			return &f.Skills[i], true
		}
	}
	return nil, false
}

// Chat returns the chat with id.
func (f *Flow) Chat(id string) (*Chat, bool) {
	for i := range f.Chats {
		if f.Chats[i].ID == id {
			return &f.Chats[i], true
		}
	}
	return nil, false
}

// GroupManagerOf returns the manager whose group contains agentID.
func (f *Flow) GroupManagerOf(agentID string) (*Agent, bool) {
	for i := range f.Agents {
		a := &f.Agents[i]
		if a.Type != AgentManager || a.GroupChat == nil {
			continue
		}
		for _, m := range a.GroupChat.Members {
			if m == agentID {
				return a, true
			}
		}
	}
	return nil, false
}

// InitialSwarmAgent returns the swarm agent marked as initial.
func (f *Flow) InitialSwarmAgent() (*Agent, bool) {
	for i := range f.Agents {
		a := &f.Agents[i]
		if a.Type == AgentSwarm && a.Swarm != nil && a.Swarm.IsInitial {
			return a, true
		}
	}
	return nil, false
}
