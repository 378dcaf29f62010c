// Package assist is the in-app help assistant: a hosted chat model answers
// usage questions, and canned contextual tutorials cover the common screens.
package assist

import "context"

// Message roles follow the chat-completions convention. The system prompt is
// injected by the client; callers only send user/assistant turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Assistant answers a conversation with a single reply.
type Assistant interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// SystemPrompt frames every conversation. Spanish, like the rest of the
// user-facing surface.
const SystemPrompt = `Eres el asistente de Boleta Scanner, una aplicación para escanear y organizar boletas/recibos.

Tu rol es:
1. Ayudar a los usuarios a usar la aplicación
2. Responder preguntas sobre funcionalidades
3. Dar consejos sobre organización de gastos
4. Explicar cómo funcionan las características

Características de la app:
- Escanear boletas con la cámara o subir fotos
- La IA extrae automáticamente los datos (tienda, productos, totales)
- Los gastos se organizan en una tabla tipo Excel
- Se pueden exportar a archivo .xlsx
- Sincronización con Google Drive
- Categorización automática de gastos

Sé amable, conciso y útil. Responde en español chileno cuando sea apropiado.
Si no sabes algo específico de la app, sugiere contactar soporte.`

var tutorials = map[string]string{
	"landing": `¡Bienvenido a Boleta Scanner! 👋

Para empezar:
1. Inicia sesión con tu cuenta de Google o crea una cuenta
2. Ve al Dashboard para ver tus gastos
3. Usa el botón "Escanear" para agregar tu primera boleta

¿Tienes dudas? ¡Pregúntame lo que quieras!`,

	"dashboard": `Este es tu Dashboard 📊

Aquí puedes:
• Ver todas tus boletas en una tabla
• Filtrar por fecha, categoría o tienda
• Ver estadísticas de tus gastos
• Exportar a Excel

Tip: Usa el botón flotante (+) para escanear una nueva boleta`,

	"scanner": `Escáner de Boletas 📸

Para mejores resultados:
• Usa buena iluminación
• Mantén la boleta plana
• Incluye toda la boleta en la foto
• Evita sombras y reflejos

La IA extraerá automáticamente los datos. Podrás editarlos antes de guardar.`,

	"export": `Exportar Datos 📥

Opciones disponibles:
• Descargar Excel (.xlsx) - archivo completo
• Sincronizar con Google Drive - respaldo automático
• Exportar por rango de fechas

Tip: Conecta tu Google Drive en el perfil para respaldos automáticos`,

	"profile": `Tu Perfil ⚙️

Desde aquí puedes:
• Conectar/desconectar Google Drive
• Cambiar preferencias de la app
• Ver estadísticas de uso
• Cerrar sesión`,
}

// Tutorial returns the canned walkthrough for a screen; unknown contexts get
// the landing tutorial.
func Tutorial(screen string) string {
	if t, ok := tutorials[screen]; ok {
		return t
	}
	return tutorials["landing"]
}
