package analysis

import "fmt"

const systemPrompt = `Eres un meteorólogo experto y científico de datos ambientales con 20 años de experiencia.
Tu rol es analizar datos de sensores IoT y generar informes profesionales, detallados y accionables.

Características de tu análisis:
- Eres preciso con los cálculos estadísticos
- Identificas patrones y correlaciones entre variables
- Detectas anomalías y explicas sus posibles causas
- Proporcionas recomendaciones prácticas basadas en los datos
- Tu lenguaje es técnico pero accesible
- Consideras el contexto agrícola/ambiental de los sensores

Siempre respondes en JSON válido, sin markdown ni texto adicional.`

const userPromptTemplate = `Analiza exhaustivamente los siguientes datos de sensores IoT recopilados en las últimas horas.

## DATOS DE SENSORES
%s

## INSTRUCCIONES DE ANÁLISIS

Genera un informe JSON completo con la siguiente estructura:

{
    "fecha": "YYYY-MM-DD",
    "hora_inicio": "HH:MM",
    "hora_fin": "HH:MM",
    "duracion_monitoreo": "X horas Y minutos",
    "total_lecturas": número,

    "resumen_ejecutivo": "Párrafo de 3-4 oraciones describiendo las condiciones generales del período, destacando lo más relevante y cualquier situación que requiera atención.",

    "condicion_general": "Una de: Óptimo | Estable | Variable | Alerta | Crítico",

    "indice_confort": {
        "valor": número del 1-100,
        "descripcion": "Interpretación del índice basado en temperatura y humedad"
    },

    "variables": {
        "temperatura": {
            "promedio": número,
            "max": número,
            "min": número,
            "amplitud_termica": número,
            "tendencia": "en aumento | en descenso | estable | oscilante",
            "interpretacion": "Análisis breve de las condiciones térmicas"
        },
        "presion": {
            "promedio": número,
            "max": número,
            "min": número,
            "variacion": número,
            "tendencia": "en aumento | en descenso | estable",
            "pronostico": "Qué indica la presión sobre el clima próximo"
        },
        "humedad_relativa": {
            "promedio": número,
            "max": número,
            "min": número,
            "tendencia": "en aumento | en descenso | estable",
            "riesgo_rocio": "alto | medio | bajo | nulo",
            "interpretacion": "Análisis de las condiciones de humedad"
        },
        "luminosidad": {
            "promedio": número,
            "max": número,
            "min": número,
            "horas_luz_optima": "Estimación de horas con luz adecuada",
            "tendencia": "Descripción del ciclo lumínico observado"
        },
        "humedad_suelo": {
            "promedio": número,
            "max": número,
            "min": número,
            "tendencia": "en aumento | en descenso | estable | errática",
            "estado": "saturado | óptimo | seco | muy seco",
            "necesita_riego": true/false,
            "interpretacion": "Análisis del estado hídrico del suelo"
        },
        "vibracion": {
            "promedio": número o null,
            "max": número o null,
            "eventos_detectados": número,
            "interpretacion": "Análisis de actividad vibratoria si hay datos"
        }
    },

    "correlaciones": [
        "Descripción de relaciones observadas entre variables (ej: 'La temperatura y humedad muestran correlación inversa típica')"
    ],

    "anomalias": [
        {
            "hora": "HH:MM",
            "tipo": "tipo de anomalía",
            "variable": "variable afectada",
            "descripcion": "Descripción detallada",
            "severidad": "baja | media | alta",
            "posible_causa": "Explicación probable"
        }
    ],

    "alertas": [
        {
            "tipo": "tipo de alerta",
            "mensaje": "Descripción de la alerta",
            "accion_recomendada": "Qué hacer al respecto"
        }
    ],

    "recomendaciones": [
        "Recomendación práctica 1 basada en los datos",
        "Recomendación práctica 2",
        "Recomendación práctica 3"
    ],

    "observaciones": "Interpretación final profesional de 2-3 párrafos sobre las condiciones generales, tendencias observadas, y pronóstico a corto plazo basado en los patrones detectados.",

    "calidad_datos": {
        "completitud": "porcentaje estimado de datos válidos",
        "sensores_problematicos": ["lista de sensores con lecturas sospechosas si los hay"],
        "confiabilidad": "alta | media | baja"
    }
}

IMPORTANTE:
- Calcula los valores estadísticos con precisión
- Si un sensor no tiene datos, usa null y menciónalo
- Identifica al menos 2-3 correlaciones si existen patrones
- Sé específico con las horas cuando menciones eventos
- Las recomendaciones deben ser accionables y prácticas`

// UserPrompt embeds the formatted reading listing into the analysis instructions.
func UserPrompt(listing string) string {
	return fmt.Sprintf(userPromptTemplate, listing)
}
